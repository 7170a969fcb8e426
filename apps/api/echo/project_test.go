package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ujenzi/core/user"
	"github.com/trezcool/ujenzi/tests"
)

func TestProjectAPI(t *testing.T) {
	app := setup(t)
	mary := testutil.CreateUser(t, app.usrRepo, "Mary", "mary@test.cd", "", user.RoleManager, true)
	olga := testutil.CreateUser(t, app.usrRepo, "Olga", "olga@test.cd", "", user.RoleManager, true)
	jo := testutil.CreateUser(t, app.usrRepo, "Jo", "jo@test.cd", "", user.RoleStaff, true)
	ann := testutil.CreateUser(t, app.usrRepo, "Ann", "ann@test.cd", "", user.RoleClient, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Root", "root@test.cd", "", user.RoleAdmin, true)
	maryToken, olgaToken, joToken, adminToken := app.token(t, mary), app.token(t, olga), app.token(t, jo), app.token(t, admin)

	newProject := func() jsonBody {
		return jsonBody{
			"name":        "Bridge",
			"description": "Pedestrian bridge",
			"start_date":  "2024-01-15",
			"end_date":    "2024-06-30",
			"milestones": []jsonBody{
				{"name": "Foundations", "due_date": "2024-02-01"},
				{"name": "Deck"},
				{"name": "Paint"},
			},
			"assigned_users": []int64{jo.ID, ann.ID},
		}
	}

	t.Run("roles", func(t *testing.T) {
		code, _ := app.do(t, http.MethodGet, "/api/projects", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		code, _ = app.do(t, http.MethodGet, "/api/projects", joToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
		code, _ = app.do(t, http.MethodGet, "/api/admin/projects", maryToken, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name      string
			mutate    func(body jsonBody)
			wantField string
		}{
			{name: "end before start", mutate: func(body jsonBody) { body["end_date"] = "2024-01-01" }, wantField: "end_date"},
			{name: "no milestones", mutate: func(body jsonBody) { body["milestones"] = []jsonBody{} }, wantField: "milestones"},
			{name: "bad date", mutate: func(body jsonBody) { body["start_date"] = "soon" }, wantField: "start_date"},
			{name: "unknown user", mutate: func(body jsonBody) { body["assigned_users"] = []int64{jo.ID, 404} }, wantField: "assigned_users"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				body := newProject()
				tt.mutate(body)
				code, res := app.do(t, http.MethodPost, "/api/projects", maryToken, body)
				assert.Equal(t, http.StatusUnprocessableEntity, code)
				assert.Contains(t, fieldErrors(res), tt.wantField)
			})
		}
	})

	var projectID int64
	var milestoneIDs []int64
	t.Run("create", func(t *testing.T) {
		code, res := app.do(t, http.MethodPost, "/api/projects", maryToken, newProject())
		require.Equal(t, http.StatusCreated, code, res)
		assert.Equal(t, "Project created successfully!", res["message"])

		p := res["project"].(map[string]interface{})
		projectID = int64(p["id"].(float64))
		assert.Equal(t, "Mary", p["manager_name"])
		assert.Equal(t, "planning", p["status"])
		assert.Equal(t, float64(0), p["progress_percentage"])
		assert.Len(t, p["assigned_users"], 2)

		milestones := p["milestones"].([]interface{})
		require.Len(t, milestones, 3)
		for _, m := range milestones {
			milestoneIDs = append(milestoneIDs, int64(m.(map[string]interface{})["id"].(float64)))
		}
		assert.Equal(t, "2024-02-01", milestones[0].(map[string]interface{})["due_date"])
		assert.Nil(t, milestones[1].(map[string]interface{})["due_date"])
	})

	t.Run("list managed", func(t *testing.T) {
		code, res := app.do(t, http.MethodGet, "/api/projects", maryToken, nil)
		assert.Equal(t, http.StatusOK, code)
		projects := res["projects"].([]interface{})
		require.Len(t, projects, 1)
		p := projects[0].(map[string]interface{})
		assert.Equal(t, "2024-01-15", p["start_date"])
		assert.Equal(t, float64(3), p["milestones_count"])
		assert.Equal(t, float64(2), p["assigned_users"])

		_, res = app.do(t, http.MethodGet, "/api/projects", olgaToken, nil)
		assert.Equal(t, []interface{}{}, res["projects"])
	})

	t.Run("assignable users", func(t *testing.T) {
		code, res := app.do(t, http.MethodGet, "/api/project-users", maryToken, nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, res["users"], 2)
	})

	t.Run("milestones", func(t *testing.T) {
		path := fmt.Sprintf("/api/milestones/%d", milestoneIDs[0])
		code, res := app.do(t, http.MethodPut, path, maryToken, jsonBody{"is_completed": true})
		require.Equal(t, http.StatusOK, code, res)
		assert.Equal(t, 33.33, res["progress_percentage"])

		code, res = app.do(t, http.MethodPut, path, maryToken, jsonBody{})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, fieldErrors(res), "is_completed")

		code, _ = app.do(t, http.MethodPut, path, olgaToken, jsonBody{"is_completed": false})
		assert.Equal(t, http.StatusNotFound, code, "only the project manager")
		code, _ = app.do(t, http.MethodPut, "/api/milestones/x", maryToken, jsonBody{"is_completed": false})
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("admin", func(t *testing.T) {
		code, res := app.do(t, http.MethodGet, "/api/admin/projects", adminToken, nil)
		assert.Equal(t, http.StatusOK, code)
		projects := res["projects"].([]interface{})
		require.Len(t, projects, 1)
		assert.Equal(t, "Mary", projects[0].(map[string]interface{})["manager_name"])
		assert.Equal(t, 33.33, projects[0].(map[string]interface{})["progress_percentage"])

		path := fmt.Sprintf("/api/admin/projects/%d", projectID)
		code, res = app.do(t, http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Bridge", res["project"].(map[string]interface{})["name"])

		code, res = app.do(t, http.MethodPut, path+"/users", adminToken, jsonBody{"assigned_users": []int64{olga.ID}})
		require.Equal(t, http.StatusOK, code, res)
		assert.Equal(t, "Project users updated successfully!", res["message"])

		_, res = app.do(t, http.MethodGet, path, adminToken, nil)
		users := res["project"].(map[string]interface{})["assigned_users"].([]interface{})
		require.Len(t, users, 1)
		assert.Equal(t, float64(olga.ID), users[0].(map[string]interface{})["id"])

		code, res = app.do(t, http.MethodPut, path+"/users", adminToken, jsonBody{"assigned_users": []int64{404}})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Contains(t, fieldErrors(res), "assigned_users")

		code, _ = app.do(t, http.MethodGet, "/api/admin/projects/404", adminToken, nil)
		assert.Equal(t, http.StatusNotFound, code)
		code, _ = app.do(t, http.MethodPut, "/api/admin/projects/404/users", adminToken, jsonBody{})
		assert.Equal(t, http.StatusNotFound, code)
	})
}
