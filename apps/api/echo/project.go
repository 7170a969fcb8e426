package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/trezcool/ujenzi/core/project"
	"github.com/trezcool/ujenzi/core/user"
)

type projectApi struct {
	svc      project.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerProjectAPI(g *echo.Group, svc project.Service, usrSvc user.Service, validate *validator.Validate) {
	api := projectApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	manager := roleMiddleware(user.RoleManager)
	g.GET("/projects", api.queryManaged, manager)
	g.POST("/projects", api.create, manager)
	g.GET("/project-users", api.queryAssignableUsers, manager)
	g.PUT("/milestones/:id", api.updateMilestone, manager)

	ag := g.Group("/admin", roleMiddleware(user.RoleAdmin))
	ag.GET("/projects", api.query)
	ag.GET("/projects/:id", api.retrieve)
	ag.PUT("/projects/:id/users", api.updateUsers)
}

// Handlers

func (api *projectApi) queryManaged(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	projects, err := api.svc.ListForManager(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying managed projects")
	}
	return ctx.JSON(http.StatusOK, ProjectsResponse{Success: true, Projects: summaries(projects)})
}

func (api *projectApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	var data project.NewProject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, ProjectResponse{
		Success: true,
		Message: "Project created successfully!",
		Project: p.Detail(),
	})
}

func (api *projectApi) queryAssignableUsers(ctx echo.Context) error {
	users, err := api.usrSvc.AssignableUsers(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignable users")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   lo.Map(users, func(u user.User, _ int) project.AssignedUser { return project.NewAssignedUser(u) }),
	})
}

func (api *projectApi) updateMilestone(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	var data project.MilestoneUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MilestoneUpdate")
	}
	if err = api.validate.Struct(&data); err != nil {
		return err
	}

	pct, err := api.svc.UpdateMilestone(ctx.Request().Context(), usr.ID, id, *data.IsCompleted)
	if err != nil {
		return errors.Wrap(err, "updating milestone")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":             true,
		"message":             "Milestone updated successfully!",
		"progress_percentage": pct,
	})
}

func (api *projectApi) query(ctx echo.Context) error {
	projects, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	return ctx.JSON(http.StatusOK, ProjectsResponse{Success: true, Projects: summaries(projects)})
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting project")
	}
	return ctx.JSON(http.StatusOK, ProjectResponse{Success: true, Project: p.Detail()})
}

func (api *projectApi) updateUsers(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}

	var data project.UsersUpdate
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UsersUpdate")
	}
	if err = api.svc.CheckUsers(ctx.Request().Context(), data.AssignedUsers); err != nil {
		return err
	}

	if err = api.svc.SyncUsers(ctx.Request().Context(), id, data.AssignedUsers); err != nil {
		return errors.Wrap(err, "updating project users")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "Project users updated successfully!"})
}

func summaries(projects []project.Project) []project.Summary {
	return lo.Map(projects, func(p project.Project, _ int) project.Summary { return p.Summary() })
}

type (
	ProjectsResponse struct {
		Success  bool              `json:"success"`
		Projects []project.Summary `json:"projects"`
	}

	ProjectResponse struct {
		Success bool           `json:"success"`
		Message string         `json:"message,omitempty"`
		Project project.Detail `json:"project"`
	}
)
