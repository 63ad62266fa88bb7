package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crucial707/assettrack/cmd/cli/config"
	"github.com/crucial707/assettrack/cmd/cli/output"
	"github.com/crucial707/assettrack/cmd/cli/users"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage assets",
	}

	assetsCmd.AddCommand(
		createAssetCmd(),
		getAssetCmd(),
		updateAssetCmd(),
		retireAssetCmd(),
		transitionAssetCmd(),
		eventsCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

// ==========================
// CREATE
// ==========================
func createAssetCmd() *cobra.Command {

	fields := map[string]*string{
		"asset_tag":      new(string),
		"serial_number":  new(string),
		"equipment_type": new(string),
		"manufacturer":   new(string),
		"model":          new(string),
		"model_code":     new(string),
		"custody_state":  new(string),
		"issued_to_name": new(string),
		"issued_to_role": new(string),
		"condition":      new(string),
		"location_site":  new(string),
		"building_room":  new(string),
		"case_number":    new(string),
		"slot_number":    new(string),
		"created_date":   new(string),
	}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			for name, value := range fields {
				if *value != "" {
					payload[name] = *value
				}
			}

			var record map[string]any
			if err := apiRequest("POST", "/assets", payload, &record); err != nil {
				return err
			}
			renderRecord(record)
			return nil
		},
	}

	for name, value := range fields {
		flag := flagName(name)
		cmd.Flags().StringVar(value, flag, "", name)
	}

	return cmd
}

// ==========================
// GET
// ==========================
func getAssetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [tag]",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var record map[string]any
			if err := apiRequest("GET", "/assets/"+args[0], nil, &record); err != nil {
				return err
			}
			renderRecord(record)
			return nil
		},
	}
}

// ==========================
// UPDATE
// ==========================
func updateAssetCmd() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "update [tag]",
		Short: "Update asset fields",
		Long: `Update one or more fields, e.g.:
  assettrack assets update AT-1001 --set condition=worn --set building_room=B-204
Fields the server does not know are dropped, not rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			for _, kv := range set {
				k, v, ok := splitKV(kv)
				if !ok {
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				payload[k] = v
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update, pass at least one --set")
			}

			var record map[string]any
			if err := apiRequest("PATCH", "/assets/"+args[0], payload, &record); err != nil {
				return err
			}
			renderRecord(record)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "field=value to update (repeatable)")
	return cmd
}

// ==========================
// RETIRE
// ==========================
func retireAssetCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "retire [tag]",
		Short: "Retire asset (soft, no delete)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			if date != "" {
				payload["updated_date"] = date
			}
			if err := apiRequest("POST", "/assets/"+args[0]+"/retire", payload, nil); err != nil {
				return err
			}
			fmt.Println("Asset retired")
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "retirement date (optional)")
	return cmd
}

// ==========================
// TRANSITION
// ==========================
func transitionAssetCmd() *cobra.Command {
	var state, notes string

	cmd := &cobra.Command{
		Use:   "transition [tag]",
		Short: "Change custody state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if state == "" {
				return fmt.Errorf("--state is required")
			}
			payload := map[string]any{"custody_state": state}
			if notes != "" {
				payload["notes"] = notes
			}

			var record map[string]any
			if err := apiRequest("POST", "/assets/"+args[0]+"/transition", payload, &record); err != nil {
				return err
			}
			renderRecord(record)
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "new custody state (e.g. stored, issued, in_repair)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes for the audit trail")
	return cmd
}

// ==========================
// EVENTS
// ==========================
func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events [tag]",
		Short: "Show the audit trail for one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var events []struct {
				ID        int64          `json:"id"`
				EventType string         `json:"event_type"`
				EventDate string         `json:"event_date"`
				Actor     *string        `json:"actor"`
				Notes     *string        `json:"notes"`
				Payload   map[string]any `json:"payload"`
			}
			if err := apiRequest("GET", "/assets/"+args[0]+"/events", nil, &events); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(events))
			for _, e := range events {
				payload := ""
				if e.Payload != nil {
					b, _ := json.Marshal(e.Payload)
					payload = string(b)
				}
				rows = append(rows, []interface{}{
					e.ID, e.EventType, e.EventDate, deref(e.Actor), deref(e.Notes), payload,
				})
			}
			output.RenderTable([]string{"ID", "Type", "Date", "Actor", "Notes", "Payload"}, rows)
			return nil
		},
	}
}

// ==========================
// Helpers
// ==========================

func apiRequest(method, path string, payload any, out any) error {
	token, err := users.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func renderRecord(record map[string]any) {
	rows := make([][]interface{}, 0, len(record))
	for _, k := range sortedKeys(record) {
		v := record[k]
		if v == nil {
			v = ""
		}
		rows = append(rows, []interface{}{k, v})
	}
	output.RenderTable([]string{"Field", "Value"}, rows)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitKV(s string) (string, string, bool) {
	k, v, ok := strings.Cut(s, "=")
	return k, v, ok && k != ""
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
