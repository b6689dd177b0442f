// Package output renders daemon query results for the terminal: tables for
// listings and a box-drawing view of a workspace's window arrangement.
package output

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/stridewm/stride/internal/models"
)

// PrintWorkspacesTable prints workspaces in a table format
func PrintWorkspacesTable(workspaces []models.WorkspaceInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Layout", "Screen", "Focused", "Windows", "App")

	for _, ws := range workspaces {
		focused := ""
		if ws.IsFocused {
			focused = "*"
		}
		table.Append(
			ws.Name,
			string(ws.LayoutMode),
			ws.ScreenName,
			focused,
			fmt.Sprintf("%d", ws.WindowCount),
			truncate(ws.FocusedApp, 20),
		)
	}

	table.Render()
}

// PrintWindowsTable prints windows in a table format
func PrintWindowsTable(windows []models.WindowInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Title", "App", "Frame", "Focused")

	// Sort by ID
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].ID < windows[j].ID
	})

	for _, win := range windows {
		focused := ""
		if win.IsFocused {
			focused = "*"
		}
		frame := fmt.Sprintf("%.0fx%.0f@%.0f,%.0f",
			win.Frame.Width, win.Frame.Height, win.Frame.X, win.Frame.Y)

		table.Append(
			fmt.Sprintf("%d", win.ID),
			truncate(win.Title, 30),
			truncate(win.AppName, 20),
			frame,
			focused,
		)
	}

	table.Render()
}

// PrintScreensTable prints screens in a table format
func PrintScreensTable(screens []models.ScreenInfo) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "Resolution", "Usable", "Scale", "Main")

	for _, s := range screens {
		main := ""
		if s.IsMain {
			main = "*"
		}
		table.Append(
			truncate(s.Name, 25),
			fmt.Sprintf("%.0fx%.0f", s.Frame.Width, s.Frame.Height),
			fmt.Sprintf("%.0fx%.0f", s.UsableFrame.Width, s.UsableFrame.Height),
			fmt.Sprintf("%.1fx", s.Scale),
			main,
		)
	}

	table.Render()
}

// PrintFocusedWindow prints detailed information about the focused window
func PrintFocusedWindow(win *models.FocusedWindowInfo) {
	if win == nil {
		fmt.Println("No window focused")
		return
	}
	fmt.Printf("Window ID: %d\n", win.WindowID)
	fmt.Printf("Title: %s\n", win.Title)
	fmt.Printf("Application: %s\n", win.AppName)
	fmt.Printf("Workspace: %s\n", win.Workspace)
	fmt.Printf("Position: (%.0f, %.0f)\n", win.Frame.X, win.Frame.Y)
	fmt.Printf("Size: %.0fx%.0f\n", win.Frame.Width, win.Frame.Height)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
