package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Client talks to the NCBI E-utilities endpoints. Every request carries the
// tool and email contact identifiers per the E-utilities usage policy.
type Client struct {
	BaseURL string
	Tool    string
	Email   string
	HTTP    *http.Client
}

func NewClient(baseURL, tool, email string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		Tool:    tool,
		Email:   email,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Summary is the citation metadata esummary returns for one record.
type Summary struct {
	UID         string
	Title       string
	FirstAuthor string
	Year        string
	Source      string
}

// titleCleaner drops the escaped italics markup PubMed embeds in titles.
var titleCleaner = strings.NewReplacer("&lt;i&gt;", "", "&lt;/i&gt;", "")

// Citation renders the summary as a single citation line.
func (s Summary) Citation() string {
	author := s.FirstAuthor
	if author == "" {
		author = "Unknown"
	}
	year := s.Year
	if year == "" {
		year = "n.d."
	}
	return fmt.Sprintf("%s et al. (%s). %s. %s.", author, year, titleCleaner.Replace(s.Title), s.Source)
}

// BuildQuery composes the literature query used for pathway decision points,
// restricted to guidelines and systematic reviews.
func BuildQuery(condition, point string) string {
	return fmt.Sprintf("(%s) AND (%s) AND (Guideline[pt] OR Systematic Review[pt])", condition, point)
}

// --- Wire structs (internal to this package) ---

type esearchResponse struct {
	ESearchResult struct {
		IdList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryAuthor struct {
	Name string `json:"name"`
}

type esummaryRecord struct {
	UID     string           `json:"uid"`
	Title   string           `json:"title"`
	Authors []esummaryAuthor `json:"authors"`
	PubDate string           `json:"pubdate"`
	Source  string           `json:"source"`
}

// Search performs the two-step lookup: esearch resolves the query to record
// ids, esummary resolves ids to citation metadata. Result order follows the
// esearch id list. A query matching nothing yields an empty slice and no
// error; transport and decode failures are returned to the caller, who
// decides the fallback.
func (c *Client) Search(ctx context.Context, query string, retMax int) ([]Summary, error) {
	ids, err := c.search(ctx, query, retMax)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Summary{}, nil
	}
	return c.summaries(ctx, ids)
}

func (c *Client) search(ctx context.Context, query string, retMax int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(retMax))
	c.setContact(params)

	body, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var res esearchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("esearch decode: %w", err)
	}

	return res.ESearchResult.IdList, nil
}

func (c *Client) summaries(ctx context.Context, ids []string) ([]Summary, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")
	c.setContact(params)

	body, err := c.get(ctx, "esummary.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esummary: %w", err)
	}

	// The result object is keyed by uid next to a "uids" index entry, so it
	// decodes as a raw map and records are picked out in esearch order.
	var envelope struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("esummary decode: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		raw, ok := envelope.Result[id]
		if !ok {
			continue
		}

		var rec esummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("esummary record %s decode: %w", id, err)
		}

		s := Summary{
			UID:    id,
			Title:  rec.Title,
			Source: rec.Source,
		}
		if len(rec.Authors) > 0 {
			s.FirstAuthor = rec.Authors[0].Name
		}
		if len(rec.PubDate) >= 4 {
			s.Year = rec.PubDate[:4]
		}
		summaries = append(summaries, s)
	}

	return summaries, nil
}

func (c *Client) setContact(params url.Values) {
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.BaseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
