package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/snipx/internal/services"
	"github.com/desertthunder/snipx/internal/shared"
	"github.com/urfave/cli/v3"
)

// rawAPI returns the raw client, acting as the signed-in user when there is one.
func (r *Runner) rawAPI() *services.APIService {
	if sess := r.session.Session(); sess.Active() {
		return r.api.WithUser(sess.UserName)
	}
	return r.api
}

// APIGet makes a direct GET request to the API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.rawAPI().Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !useJSON)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return err
	}

	resp, err := r.rawAPI().Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

type dumpEndpoint struct {
	key  string
	path string
	auth bool
}

var dumpEndpoints = []dumpEndpoint{
	{"languages", "/api/snippets/languages", false},
	{"guest", "/api/snippets/guest", false},
	{"users", "/api/auth/users", true},
	{"mine", "/api/snippets/me", true},
	{"shared", "/api/snippets/shared/me", true},
}

// APIDump fetches every list endpoint visible to the current session.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	type DumpData struct {
		User      string              `json:"user,omitempty"`
		Endpoints map[string]any      `json:"endpoints"`
		Errors    []map[string]string `json:"errors,omitempty"`
	}

	sess := r.session.Session()
	api := r.rawAPI()
	dump := DumpData{User: sess.UserName, Endpoints: map[string]any{}}

	r.logger.Info("dumping API state", "user", sess.UserName)
	for _, ep := range dumpEndpoints {
		if ep.auth && !sess.Active() {
			continue
		}

		resp, err := api.Get(ctx, ep.path)
		switch {
		case err != nil:
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": ep.path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", ep.path, "error", err)
		case !resp.OK():
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": ep.path, "error": fmt.Sprintf("status %d", resp.StatusCode)})
			r.logger.Warn("failed to fetch", "endpoint", ep.path, "status", resp.StatusCode)
		case resp.IsJSON:
			dump.Endpoints[ep.key] = resp.JSONData
		default:
			dump.Endpoints[ep.key] = json.RawMessage(resp.Body)
		}
	}

	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
