// Package geocoder implements C3: resolving a free-form address into
// canonical PropertyIdentifiers via the planning geosearch service, with a
// fallback search against the HPD violations dataset (spec.md §4.3).
package geocoder // import "github.com/propplyai/propply-ai/pkg/geocoder"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/dataset"
	"github.com/propplyai/propply-ai/pkg/fetcher"
	"github.com/propplyai/propply-ai/pkg/model"
)

const defaultGeosearchURL = "https://geosearch.planninglabs.nyc/v2/search"

var zipPattern = regexp.MustCompile(`\b(\d{5})\b`)

var addressSuffixes = []string{
	", NEW YORK, NY", ", NEW YORK", ", NY",
	", MANHATTAN", ", BROOKLYN", ", QUEENS", ", BRONX", ", STATEN ISLAND",
}

var boroughNameMap = map[string]model.Borough{
	"Manhattan":     model.BoroughManhattan,
	"Brooklyn":      model.BoroughBrooklyn,
	"Queens":        model.BoroughQueens,
	"Bronx":         model.BoroughBronx,
	"Staten Island": model.BoroughStatenIsland,
}

// Resolver resolves addresses to PropertyIdentifiers.
type Resolver struct {
	httpClient    *http.Client
	geosearchURL  string
	dataFetcher   *fetcher.Client
}

// NewResolver builds a Resolver. dataFetcher is used for the HPD-violations
// fallback strategy; it may be the same Client the rest of the pipeline uses.
func NewResolver(dataFetcher *fetcher.Client, geosearchURL string) *Resolver {
	if geosearchURL == "" {
		geosearchURL = defaultGeosearchURL
	}
	return &Resolver{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		geosearchURL: geosearchURL,
		dataFetcher:  dataFetcher,
	}
}

type geosearchResponse struct {
	Features []struct {
		Properties struct {
			HouseNumber string `json:"housenumber"`
			Street      string `json:"street"`
			Borough     string `json:"borough"`
			PostalCode  string `json:"postalcode"`
			Addendum    struct {
				PAD struct {
					BIN string `json:"bin"`
					BBL string `json:"bbl"`
				} `json:"pad"`
			} `json:"addendum"`
		} `json:"properties"`
	} `json:"features"`
}

// Resolve implements spec.md §4.3's ordered strategy: primary geosearch,
// then HPD-violations fallback, else ErrorKindNotFound.
func (r *Resolver) Resolve(ctx context.Context, address string, borough string) (model.PropertyIdentifiers, error) {
	ids, err := r.primaryGeosearch(ctx, address, borough)
	if err == nil {
		return ids, nil
	}
	log.Infof("geocoder: primary geosearch failed for %q: %v; trying fallback", address, err)

	ids, err = r.fallbackViolationsSearch(ctx, address)
	if err == nil {
		return ids, nil
	}
	log.Warningf("geocoder: fallback search failed for %q: %v", address, err)

	return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNotFound, fmt.Sprintf("could not resolve address %q", address), nil)
}

func (r *Resolver) primaryGeosearch(ctx context.Context, address, borough string) (model.PropertyIdentifiers, error) {
	searchText := strings.TrimSpace(address)
	if borough != "" {
		searchText = fmt.Sprintf("%s, %s", address, borough)
	}

	q := url.Values{}
	q.Set("text", searchText)
	q.Set("size", "1")

	reqURL := fmt.Sprintf("%s?%s", r.geosearchURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.PropertyIdentifiers{}, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNetwork, "geosearch request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNetwork, "geosearch read body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindRemote, fmt.Sprintf("geosearch status %d", resp.StatusCode), nil)
	}

	var parsed geosearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindDecode, "geosearch invalid JSON", err)
	}
	if len(parsed.Features) == 0 {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNotFound, "no geosearch features", nil)
	}

	props := parsed.Features[0].Properties
	formattedAddress := strings.TrimSpace(props.HouseNumber + " " + props.Street)

	normalizedBorough, ok := boroughNameMap[props.Borough]
	if !ok {
		normalizedBorough = model.Borough(props.Borough)
	}

	ids := model.PropertyIdentifiers{
		Address: formattedAddress,
		BIN:     props.Addendum.PAD.BIN,
		BBL:     props.Addendum.PAD.BBL,
		Borough: normalizedBorough,
		ZIPCode: props.PostalCode,
	}
	if len(ids.BBL) == 10 {
		if _, block, lot, err := model.ParseBBL(ids.BBL); err == nil {
			ids.Block = block
			ids.Lot = lot
		}
	}
	return ids, nil
}

// fallbackViolationsSearch strips borough/state/ZIP suffixes, extracts a
// 5-digit ZIP, splits the remainder into house number and street name, and
// queries the HPD violations dataset for a single matching row.
func (r *Resolver) fallbackViolationsSearch(ctx context.Context, address string) (model.PropertyIdentifiers, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(address))
	for _, suffix := range addressSuffixes {
		cleaned = strings.ReplaceAll(cleaned, suffix, "")
	}

	zip := ""
	if m := zipPattern.FindStringSubmatch(cleaned); m != nil {
		zip = m[1]
		cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, zip, ""))
	}

	parts := strings.Fields(cleaned)
	if len(parts) == 0 {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNotFound, "empty address after cleaning", nil)
	}
	houseNumber := parts[0]
	streetName := strings.Join(parts[1:], " ")

	where := fmt.Sprintf("housenumber = '%s' AND streetname LIKE '%%%s%%'", houseNumber, streetName)
	if zip != "" {
		where += fmt.Sprintf(" AND zip = '%s'", zip)
	}

	hpd, ok := dataset.Lookup(dataset.KeyHPDViolations)
	if !ok {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNotFound, "hpd_violations dataset missing from registry", nil)
	}

	rows, err := r.dataFetcher.Fetch(ctx, fetcher.FetchOptions{EndpointID: hpd.EndpointID, MaxAttempts: 1}, fetcher.Query{
		Where:  where,
		Select: "buildingid, housenumber, streetname, boro, block, lot, zip",
		Limit:  1,
	})
	if err != nil {
		return model.PropertyIdentifiers{}, err
	}
	if len(rows) == 0 {
		return model.PropertyIdentifiers{}, model.NewError(model.ErrorKindNotFound, "fallback search returned no rows", nil)
	}

	match := rows[0]
	boro := str(match["boro"])
	block := str(match["block"])
	lot := str(match["lot"])

	// The fallback dataset only carries the raw borough digit (spec.md §8
	// scenario S4 expects it passed through verbatim, not mapped to a name).
	ids := model.PropertyIdentifiers{
		Address: strings.TrimSpace(str(match["housenumber"]) + " " + str(match["streetname"])),
		BIN:     str(match["buildingid"]),
		BBL:     model.BuildBBL(boro, block, lot),
		Borough: model.Borough(boro),
		Block:   block,
		Lot:     lot,
		ZIPCode: str(match["zip"]),
	}
	return ids, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
