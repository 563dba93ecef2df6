package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Standalone probe for the NCBI E-utilities contract: runs the two-step
// esearch -> esummary lookup against the live endpoint and prints what the
// citation formatter would see. Useful when NCBI changes response shapes.

const eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryEnvelope struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryRecord struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	PubDate string `json:"pubdate"`
	Source  string `json:"source"`
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	tool := getEnv("PUBMED_TOOL", "carepathiq")
	email := getEnv("PUBMED_CONTACT_EMAIL", "example@example.com")

	query := "(Acute Chest Pain) AND (Troponin) AND (Guideline[pt] OR Systematic Review[pt])"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	fmt.Printf("Query: %s\n\n", query)

	// Step 1: esearch
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", "3")
	params.Set("tool", tool)
	params.Set("email", email)

	body := mustGet(client, eutilsBase+"esearch.fcgi?"+params.Encode())

	var search esearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		log.Fatalf("esearch decode: %v", err)
	}
	fmt.Printf("esearch: %s total, %d returned: %v\n", search.ESearchResult.Count, len(search.ESearchResult.IdList), search.ESearchResult.IdList)

	if len(search.ESearchResult.IdList) == 0 {
		fmt.Println("No records; nothing to summarize.")
		return
	}

	// Step 2: esummary
	params = url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(search.ESearchResult.IdList, ","))
	params.Set("retmode", "json")
	params.Set("tool", tool)
	params.Set("email", email)

	body = mustGet(client, eutilsBase+"esummary.fcgi?"+params.Encode())

	var envelope esummaryEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Fatalf("esummary decode: %v", err)
	}

	for _, id := range search.ESearchResult.IdList {
		raw, ok := envelope.Result[id]
		if !ok {
			fmt.Printf("%s: missing from result map\n", id)
			continue
		}
		var rec esummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			fmt.Printf("%s: record decode failed: %v\n", id, err)
			continue
		}

		author := "Unknown"
		if len(rec.Authors) > 0 {
			author = rec.Authors[0].Name
		}
		year := "n.d."
		if len(rec.PubDate) >= 4 {
			year = rec.PubDate[:4]
		}
		fmt.Printf("%s et al. (%s). %s. %s.\n", author, year, rec.Title, rec.Source)
	}
}

func mustGet(client *http.Client, reqURL string) []byte {
	resp, err := client.Get(reqURL)
	if err != nil {
		log.Fatalf("GET %s: %v", reqURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("status %d: %s", resp.StatusCode, string(body))
	}
	return body
}
