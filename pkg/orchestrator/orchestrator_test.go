package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/propplyai/propply-ai/pkg/fetcher"
	"github.com/propplyai/propply-ai/pkg/geocoder"
	"github.com/propplyai/propply-ai/pkg/model"
)

func newTestOrchestrator(t *testing.T, handler http.HandlerFunc) (*Orchestrator, func()) {
	t.Helper()
	dataSrv := httptest.NewServer(handler)
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{"properties":{
			"housenumber":"1662","street":"Park Ave","borough":"Manhattan","postalcode":"10035",
			"addendum":{"pad":{"bin":"1058037","bbl":"1016420029"}}
		}}]}`))
	}))

	f := fetcher.NewClient(fetcher.Credentials{}, rate.Limit(1000))
	f.SetBaseURLForTest(dataSrv.URL)
	r := geocoder.NewResolver(f, geoSrv.URL)

	o := New(r, f, 5*time.Second)
	return o, func() { dataSrv.Close(); geoSrv.Close() }
}

func TestRunAssemblesRecordAcrossDomains(t *testing.T) {
	o, closeAll := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case containsPath(r.URL.Path, "wvxf-dwi5"):
			_, _ = w.Write([]byte(`[{"violationid":"1","bin":"1058037","violationstatus":"Open","inspectiondate":"2024-01-15"}]`))
		case containsPath(r.URL.Path, "3h2n-5cm9"):
			_, _ = w.Write([]byte(`[]`))
		case containsPath(r.URL.Path, "ju4y-gjjz"):
			_, _ = w.Write([]byte(`[{"device_number":"1P2345","bin":"1058037","device_status":"Active","status_date":"2024-02-01"}]`))
		case containsPath(r.URL.Path, "ipu4-2q9a"):
			_, _ = w.Write([]byte(`[` +
				`{"filing_number":"E1","bin":"1058037","filing_status":"Permit Issued","filing_date":"2024-03-01"},` +
				`{"filing_number":"E2","bin":"1058037","filing_status":"Closed","filing_date":"2024-03-01"}` +
				`]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	defer closeAll()

	cfg := model.DefaultRunConfig()
	record, err := o.Run(context.Background(), "1662 Park Ave", "", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if record.BIN != "1058037" {
		t.Fatalf("expected resolved BIN, got %+v", record)
	}
	if record.HPDViolations.Total != 1 || record.HPDViolations.Active != 1 {
		t.Fatalf("expected one active HPD violation, got %+v", record.HPDViolations)
	}
	if record.ElevatorDevices.Total != 1 || record.ElevatorDevices.Active != 1 {
		t.Fatalf("expected one active elevator device, got %+v", record.ElevatorDevices)
	}
	if record.ElectricalPermits.Total != 2 || record.ElectricalPermits.Active != 1 {
		t.Fatalf("expected electrical_permits_counts {2,1}, got %+v", record.ElectricalPermits)
	}
	if record.DataSources == "" || record.DataSources == "FAILED" || record.DataSources == "PARTIAL" {
		t.Fatalf("expected a strategy-tagged data_sources value, got %q", record.DataSources)
	}
}

func TestRunGeocoderFailureYieldsFailedRecord(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer dataSrv.Close()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer geoSrv.Close()

	f := fetcher.NewClient(fetcher.Credentials{}, rate.Limit(1000))
	f.SetBaseURLForTest(dataSrv.URL)
	r := geocoder.NewResolver(f, geoSrv.URL)
	o := New(r, f, 5*time.Second)

	record, err := o.Run(context.Background(), "nowhere", "", model.DefaultRunConfig())
	if err != nil {
		t.Fatal(err)
	}
	if record.DataSources != "FAILED" {
		t.Fatalf("expected FAILED data_sources, got %q", record.DataSources)
	}
	if record.Address != "nowhere" {
		t.Fatalf("expected address preserved, got %q", record.Address)
	}
}

func containsPath(path, needle string) bool {
	for i := 0; i+len(needle) <= len(path); i++ {
		if path[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
