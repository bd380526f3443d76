package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// doctorCheck is one system diagnostic result.
type doctorCheck struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail"`
	Critical bool   `json:"critical"`
}

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Run diagnostics on the corpus store and embedder:

  - Store directory exists and is writable
  - Embedder is attached and ready
  - Router state database opens cleanly`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput bool) error {
	a, err := newApp(projectDir())
	if err != nil {
		return err
	}
	defer a.Close()

	checks := []doctorCheck{
		checkStoreWritable(a.cfg.Store.RootDir),
		checkEmbedder(cmd, a),
		checkRouterState(a),
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(checks)
	}

	out := cmd.OutOrStdout()
	hasCritical := false
	for _, c := range checks {
		status := "OK"
		if !c.OK {
			status = "FAIL"
			if c.Critical {
				hasCritical = true
			}
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", status, c.Name, c.Detail)
	}
	if hasCritical {
		return fmt.Errorf("one or more critical checks failed")
	}
	return nil
}

func checkStoreWritable(root string) doctorCheck {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return doctorCheck{Name: "store_writable", OK: false, Detail: err.Error(), Critical: true}
	}
	probe := filepath.Join(root, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return doctorCheck{Name: "store_writable", OK: false, Detail: err.Error(), Critical: true}
	}
	_ = os.Remove(probe)
	return doctorCheck{Name: "store_writable", OK: true, Detail: root}
}

func checkEmbedder(cmd *cobra.Command, a *app) doctorCheck {
	if !a.embedder.Attached() {
		return doctorCheck{Name: "embedder", OK: false, Detail: "no embedder attached", Critical: true}
	}
	if !a.embedder.Ready(cmd.Context()) {
		return doctorCheck{Name: "embedder", OK: false, Detail: "embedder not ready", Critical: false}
	}
	return doctorCheck{Name: "embedder", OK: true, Detail: fmt.Sprintf("%d dims", a.embedder.Dimensions())}
}

func checkRouterState(a *app) doctorCheck {
	if a.routerDB == nil {
		return doctorCheck{Name: "router_state", OK: false, Detail: "not initialized", Critical: false}
	}
	return doctorCheck{Name: "router_state", OK: true, Detail: "opened"}
}
