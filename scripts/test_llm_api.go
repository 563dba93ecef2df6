package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func call(method, path string, payload interface{}) map[string]interface{} {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			color.Red("marshal payload: %v", err)
			os.Exit(1)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		color.Red("build request: %v", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("%s %s: %v", method, path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	color.Cyan("%s %s -> %d", method, path, resp.StatusCode)

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	prettyPrint(decoded)
	return decoded
}

func dataField(res map[string]interface{}, key string) string {
	data, _ := res["data"].(map[string]interface{})
	value, _ := data[key].(string)
	return value
}

// End-to-end smoke test against a running server: session lifecycle,
// workshop start, evidence search, assistant draft, save and reload.
func main() {
	color.Yellow("== 1. Create session ==")
	created := call("POST", "/pathway/v1/", map[string]string{"title": "Sepsis triage"})
	sessionId := dataField(created, "id")
	if sessionId == "" {
		color.Red("no session id returned")
		os.Exit(1)
	}

	color.Yellow("== 2. Start workshop ==")
	call("POST", "/pathway/v1/"+sessionId+"/workshop/start", nil)

	color.Yellow("== 3. Update scope directly ==")
	call("PATCH", "/pathway/v1/"+sessionId+"/field", map[string]string{
		"field": "scope",
		"value": "Condition: Sepsis\nPopulation: Adult ED arrivals\nSetting: Emergency Department",
	})

	color.Yellow("== 4. Evidence search ==")
	call("POST", "/evidence/v1/search", map[string]interface{}{
		"condition": "Sepsis",
		"point":     "Lactate measurement",
		"ret_max":   3,
	})

	color.Yellow("== 5. Append evidence ==")
	call("POST", "/pathway/v1/"+sessionId+"/evidence", map[string]string{
		"point":        "Lactate>2 mmol/L",
		"citation":     "Smith 2020",
		"verification": "relevant",
	})

	color.Yellow("== 6. Draft diagram (falls back without a model) ==")
	call("POST", "/assistant/v1/"+sessionId+"/draft-diagram", map[string]bool{"stream": false})

	color.Yellow("== 7. Summary ==")
	call("GET", "/assistant/v1/"+sessionId+"/summary?condense=true", nil)

	color.Yellow("== 8. Save ==")
	call("POST", "/pathway/v1/"+sessionId+"/save", map[string]string{})

	color.Yellow("== 9. Reload from document ==")
	call("POST", "/pathway/v1/load", map[string]string{})

	color.Green("Smoke test finished")
}
