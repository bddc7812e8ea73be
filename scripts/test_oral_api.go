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
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout: LLM turns can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func decode(body []byte) map[string]interface{} {
	var out map[string]interface{}
	json.Unmarshal(body, &out)
	return out
}

func main() {
	userToken := os.Getenv("ORAL_TEST_TOKEN")
	if userToken == "" {
		color.Red("ORAL_TEST_TOKEN is not set (JWT with user_id and email claims)")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Oral Practice API Smoke Test\n")

	// 1. Public dataset surface
	color.Yellow("\n[DATASET] 1. Get Dataset Stats")
	resp, body, err := sendRequest("GET", "/dataset/v1/stats", "", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Yellow("\n[DATASET] 2. Get Rubrics (FR, level B)")
	resp, body, _ = sendRequest("GET", "/dataset/v1/rubrics?language=FR&level=B", "", nil)
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 2. Session lifecycle
	color.Yellow("\n[ORAL] 3. Initialize Practice Session")
	initReq := map[string]interface{}{
		"language":     "FR",
		"target_level": "B",
		"mode":         "practice",
		"phases":       []string{"1", "2"},
		"coach_key":    "SUE_ANNE",
	}
	resp, body, err = sendRequest("POST", "/oral/v1/session", userToken, initReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	initResp := decode(body)
	prettyPrint(initResp)

	data, _ := initResp["data"].(map[string]interface{})
	sessionKey, _ := data["session_key"].(string)
	if sessionKey == "" {
		color.Red("No session key returned, aborting")
		os.Exit(1)
	}

	color.Yellow("\n[ORAL] 4. Process a Turn (expect instant feedback on « malgré que »)")
	turnReq := map[string]interface{}{
		"session_key":  sessionKey,
		"user_message": "Malgré que je sois nouveau dans l'équipe, je gère déjà trois projets.",
	}
	resp, body, _ = sendRequest("POST", "/oral/v1/turn", userToken, turnReq)
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Yellow("\n[ORAL] 5. Standalone Error Detection")
	resp, body, _ = sendRequest("POST", "/scoring/v1/detect-errors", userToken, map[string]interface{}{
		"language": "FR",
		"text":     "Si j'aurais su, je serais venu plus tôt.",
	})
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Yellow("\n[ORAL] 6. Session Report")
	reportReq := map[string]interface{}{
		"session_key": sessionKey,
		"criterion_scores": map[string]float64{
			"grammaticalAccuracy":   70,
			"vocabularyRegister":    65,
			"coherenceOrganization": 72,
			"taskCompletion":        68,
			"fluency":               60,
			"pronunciation":         64,
			"interaction":           66,
		},
	}
	resp, body, _ = sendRequest("POST", "/oral/v1/report", userToken, reportReq)
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Yellow("\n[ORAL] 7. Sustained Level Check")
	resp, body, _ = sendRequest("POST", "/oral/v1/sustained-level", userToken, map[string]interface{}{
		"target_level":  "B",
		"recent_scores": []float64{62, 66, 70, 58, 64},
	})
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 3. Cleanup path: ending a reported (already deleted) session is a no-op
	color.Yellow("\n[ORAL] 8. End Session (idempotent)")
	resp, _, _ = sendRequest("DELETE", "/oral/v1/session/"+sessionKey, userToken, nil)
	color.Green("Status: %s", resp.Status)

	color.Cyan("\n✅ Smoke test finished")
}
