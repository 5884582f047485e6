package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/application/workflow"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	workflowFile string
	workflowName string
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Save, load and validate workflow documents",
}

var workflowSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a workflow document read from --file",
	Long: `Reads a workflow document ({"name", "nodes", "edges"}) and posts it to
/workflows. The document is sent as is; run "workflow validate" first to
check it.`,
	RunE: runWorkflowSave,
}

var workflowLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a saved workflow, printing it or writing it to --file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowLoad,
}

var workflowValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a workflow document without saving it",
	RunE:  runWorkflowValidate,
}

var workflowWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Save the workflow document in --file every time it changes",
	RunE:  runWorkflowWatch,
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowSaveCmd, workflowLoadCmd, workflowValidateCmd, workflowWatchCmd)

	workflowCmd.PersistentFlags().StringVarP(&workflowFile, "file", "f", "",
		"Workflow document path (JSON)")
	workflowCmd.PersistentFlags().StringVar(&workflowName, "name", "",
		"Override the workflow name in the document")
}

// readEditor loads --file into an editor, applying --name
func readEditor() (*workflow.Editor, error) {
	if workflowFile == "" {
		return nil, fmt.Errorf("--file is required")
	}
	wf, err := workflow.ReadFile(workflowFile)
	if err != nil {
		return nil, err
	}
	editor := workflow.FromWorkflow(*wf)
	if workflowName != "" {
		editor.SetName(workflowName)
	}
	return editor, nil
}

func saveWorkflow(ctx context.Context, w io.Writer, client *api.Client) error {
	editor, err := readEditor()
	if err != nil {
		return err
	}
	saved, err := editor.Save(ctx, client)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s", util.FormatOK("Saved"), editor.Name())
	if saved.Path != "" {
		fmt.Fprintf(w, " (%s)", saved.Path)
	}
	fmt.Fprintln(w)
	return nil
}

func runWorkflowSave(cmd *cobra.Command, args []string) error {
	return saveWorkflow(cmd.Context(), cmd.OutOrStdout(), newClient())
}

func runWorkflowLoad(cmd *cobra.Command, args []string) error {
	wf, err := newClient().LoadWorkflow(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow %s: %w", args[0], err)
	}

	doc := workflow.FromWorkflow(*wf)
	if workflowName != "" {
		doc.SetName(workflowName)
	}

	if workflowFile != "" {
		if err := workflow.WriteFile(workflowFile, doc.Document()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", util.FormatOK("Loaded"), doc.Name(), workflowFile)
		return nil
	}

	data, err := sonic.ConfigStd.MarshalIndent(doc.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// runWorkflowValidate checks the document as written, before the editor
// fills in default node types and labels
func runWorkflowValidate(cmd *cobra.Command, args []string) error {
	if workflowFile == "" {
		return fmt.Errorf("--file is required")
	}
	wf, err := workflow.ReadFile(workflowFile)
	if err != nil {
		return err
	}
	if workflowName != "" {
		wf.Name = workflowName
	}
	if err := workflow.Validate(*wf); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is valid\n", util.FormatOK("OK"), wf.Name)
	return nil
}

func runWorkflowWatch(cmd *cobra.Command, args []string) error {
	if workflowFile == "" {
		return fmt.Errorf("--file is required")
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	watcher, err := workflow.NewFileWatcher([]string{workflowFile})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", workflowFile, err)
	}
	defer watcher.Close()

	out := cmd.OutOrStdout()
	client := newClient()
	if err := saveWorkflow(ctx, out, client); err != nil {
		fmt.Fprintln(out, util.FormatError(err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			util.LogDebug("workflow file changed", util.String("path", ev.Path), util.String("op", ev.Operation))
			if err := saveWorkflow(ctx, out, client); err != nil {
				fmt.Fprintln(out, util.FormatError(err.Error()))
			}
		}
	}
}
