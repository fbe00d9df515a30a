package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Manage saved requests",
}

var requestAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a new request",
	Long: `Save a new request, at the top level or inside a collection.

Examples:
  hitdesk request add --name "List users" --method GET --url https://api.example.com/users
  hitdesk request add --collection <id> --name "Create user" --method POST \
    --url https://api.example.com/users -H "Content-Type: application/json" -d '{"name":"ada"}'
  hitdesk request add --name Search --method GET --url https://api.example.com/search -q q=ada -p "X-Token: secret"`,
	Args: cobra.NoArgs,
	RunE: requestAddCommand,
}

var requestUpdateCmd = &cobra.Command{
	Use:   "update <request-id>",
	Short: "Update a saved request",
	Long: `Update fields of a saved request. Only the flags given are changed;
--header, --query and --param replace the existing lists.

Examples:
  hitdesk request update <id> --url https://api.example.com/v2/users
  hitdesk request update <id> --name "List users (v2)" -H "Accept: application/json"`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRequestIDs,
	RunE:              requestUpdateCommand,
}

var (
	reqCollectionFlag string
	reqNameFlag       string
	reqMethodFlag     string
	reqURLFlag        string
	reqHeaderFlags    []string
	reqBodyFlag       string
	reqQueryFlags     []string
	reqParamFlags     []string
)

func init() {
	requestAddCmd.Flags().StringVarP(&reqCollectionFlag, "collection", "c", "", "Collection id (default: top level)")
	for _, c := range []*cobra.Command{requestAddCmd, requestUpdateCmd} {
		c.Flags().StringVar(&reqNameFlag, "name", "", "Request name")
		c.Flags().StringVarP(&reqMethodFlag, "method", "X", "", "HTTP method")
		c.Flags().StringVar(&reqURLFlag, "url", "", "Request URL")
		c.Flags().StringArrayVarP(&reqHeaderFlags, "header", "H", nil, `Header "Key: Value" (repeatable)`)
		c.Flags().StringVarP(&reqBodyFlag, "data", "d", "", "Request body, or @file to read it from a file")
		c.Flags().StringArrayVarP(&reqQueryFlags, "query", "q", nil, "Query parameter key=value applied when sent (repeatable)")
		c.Flags().StringArrayVarP(&reqParamFlags, "param", "p", nil, `Header parameter "Key: Value" applied when sent (repeatable)`)
	}

	requestCmd.AddCommand(requestAddCmd)
	requestCmd.AddCommand(requestUpdateCmd)
}

func parseQueryParam(raw string) (store.Parameter, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return store.Parameter{}, fmt.Errorf("invalid query parameter %q (want key=value)", raw)
	}
	return store.Parameter{Type: store.ParamQuery, Key: strings.TrimSpace(key), Value: value}, nil
}

func parseStoreHeaders(raws []string) ([]store.Header, error) {
	headers := make([]store.Header, 0, len(raws))
	for _, raw := range raws {
		h, err := parseHeader(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, store.Header{Key: h.Key, Value: h.Value})
	}
	return headers, nil
}

func parseParameters(queries, params []string) ([]store.Parameter, error) {
	out := make([]store.Parameter, 0, len(queries)+len(params))
	for _, raw := range queries {
		p, err := parseQueryParam(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	for _, raw := range params {
		h, err := parseHeader(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Parameter{Type: store.ParamHeader, Key: h.Key, Value: h.Value})
	}
	return out, nil
}

// applyRequestFlags copies the flags the user set onto req.
func applyRequestFlags(cmd *cobra.Command, req *store.SavedRequest) error {
	flags := cmd.Flags()

	if flags.Changed("name") {
		req.Name = reqNameFlag
	}
	if flags.Changed("method") {
		method, ok := executor.ParseMethod(reqMethodFlag)
		if !ok {
			return fmt.Errorf("unsupported method %q", reqMethodFlag)
		}
		req.Method = string(method)
	}
	if flags.Changed("url") {
		// references are resolved at send time; validate what resolves now
		e := env.NewExpander(nil)
		if resolved := e.Expand(reqURLFlag); len(e.Missing()) == 0 {
			if err := http.ValidateURL(resolved); err != nil {
				return err
			}
		}
		req.URL = reqURLFlag
	}
	if flags.Changed("header") {
		headers, err := parseStoreHeaders(reqHeaderFlags)
		if err != nil {
			return err
		}
		req.Headers = headers
	}
	if flags.Changed("data") {
		body, err := readBody(reqBodyFlag)
		if err != nil {
			return err
		}
		req.Body = ""
		if body != nil {
			req.Body = *body
		}
	}
	if flags.Changed("query") || flags.Changed("param") {
		params, err := parseParameters(reqQueryFlags, reqParamFlags)
		if err != nil {
			return err
		}
		req.Parameters = params
	}
	return nil
}

func requestAddCommand(cmd *cobra.Command, args []string) error {
	for _, name := range []string{"name", "method", "url"} {
		if !cmd.Flags().Changed(name) {
			return usageError("--%s is required", name)
		}
	}
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	var req store.SavedRequest
	if err := applyRequestFlags(cmd, &req); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	saved, err := a.AddRequest(reqCollectionFlag, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return withExitCode(ExitUsageError, err)
		}
		return err
	}

	if asJSON {
		return jsonFor(cmd).FormatValue(saved)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved request %q: %s\n", saved.Name, saved.ID)
	return nil
}

func requestUpdateCommand(cmd *cobra.Command, args []string) error {
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	doc, err := a.Document()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	req, _, err := doc.FindRequest(args[0])
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if err := applyRequestFlags(cmd, &req); err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if err := a.UpsertRequest(req); err != nil {
		return err
	}

	if asJSON {
		return jsonFor(cmd).FormatValue(req)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated request %q: %s\n", req.Name, req.ID)
	return nil
}
