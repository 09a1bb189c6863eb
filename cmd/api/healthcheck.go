// cmd/api/healthcheck.go
package main

import "net/http"

// healthcheckHandler handles GET /v1/healthcheck.
// It reports that the server is up along with its environment, storage
// backend and version.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	data := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.environment,
			"storage":     app.config.storage,
			"version":     appVersion,
		},
	}

	err := app.writeJSON(w, http.StatusOK, data, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
