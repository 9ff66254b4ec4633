package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// runInteractiveCLI starts an interactive command-line interface for testing
// the bridge. Every line builds a command envelope and runs it through the
// same dispatcher the WebSocket and MCP surfaces use.
func (a *App) runInteractiveCLI() {
	fmt.Println(WelcomeMsg)
	fmt.Println(HelpMsg)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n" + PromptStr)
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := strings.ToLower(parts[0])
		switch cmd {
		case "exit":
			return

		case "plots":
			a.cliRun("list_open_plots", nil)

		case "get":
			params := map[string]any{}
			if len(parts) > 1 {
				params["filename"] = parts[1]
			}
			a.cliRun("get_feature_collection", params)

		case "set-selection":
			a.cliRun("set_selected_features", map[string]any{"ids": parts[1:]})

		case "selection":
			a.cliRun("get_selected_features", nil)

		case "add":
			if len(parts) < 3 {
				fmt.Println("Usage: add <lon> <lat>")
				continue
			}
			a.cliRun("add_features", map[string]any{
				"features": []map[string]any{{
					"type": "Feature",
					"geometry": map[string]any{
						"type":        "Point",
						"coordinates": []json.Number{json.Number(parts[1]), json.Number(parts[2])},
					},
					"properties": map[string]any{"featureType": FeatureTypePoint},
				}},
			})

		case "delete":
			if len(parts) < 2 {
				fmt.Println("Usage: delete <id...>")
				continue
			}
			a.cliRun("delete_features", map[string]any{"ids": parts[1:]})

		case "time":
			a.cliRun("get_time", nil)

		case "viewport":
			a.cliRun("get_viewport", nil)

		case "notify":
			if len(parts) < 2 {
				fmt.Println("Usage: notify <message>")
				continue
			}
			a.cliRun("notify", map[string]any{"message": strings.Join(parts[1:], " ")})

		default:
			fmt.Println(HelpMsg)
		}
	}
}

// cliRun dispatches one command and pretty-prints the wire response.
func (a *App) cliRun(command string, params map[string]any) {
	var raw json.RawMessage
	if params != nil {
		raw, _ = json.Marshal(params)
	}
	resp := a.dispatcher.Dispatch(CommandRequest{Command: command, Params: raw})

	var pretty map[string]any
	if err := json.Unmarshal(resp, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(string(resp))
}
