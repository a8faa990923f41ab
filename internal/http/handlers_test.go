package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/repository"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/service"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svcs, err := service.New(repository.NewMemory(), service.Options{
		Hasher: service.NewPasswordHasher(8, 1),
		Now:    func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return NewApp(svcs)
}

// do sends body as JSON; a string body is sent verbatim.
func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func signup(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := do(t, app, "POST", "/auth/register", "", fiber.Map{"name": "User", "email": email, "password": "pw"})
	require.Equal(t, fiber.StatusCreated, status, string(body))
	status, body = do(t, app, "POST", "/auth/login", "", fiber.Map{"email": email, "password": "pw"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	return decode[struct {
		Token string `json:"token"`
	}](t, body).Token
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, body = do(t, app, "GET", "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "smartenergy_http_requests_total")
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, "GET", "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(body), `"error"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	routes := [][2]string{
		{"GET", "/auth/me"},
		{"POST", "/auth/logout"},
		{"GET", "/appliances"},
		{"POST", "/control/toggle/1"},
		{"GET", "/energy"},
		{"GET", "/energy/realtime"},
		{"POST", "/forecast"},
	}
	for _, r := range routes {
		status, _ := do(t, app, r[0], r[1], "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, r)
		status, _ = do(t, app, r[0], r[1], "not-a-token", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, r)
	}
}

func TestBearerSchemeIsCaseInsensitive(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	token, ok := bearerToken("Basic abc")
	assert.False(t, ok)
	assert.Empty(t, token)
	_, ok = bearerToken("Bearer   ")
	assert.False(t, ok)
}

func TestRegisterAndDuplicate(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, "POST", "/auth/register", "", fiber.Map{"name": "Ann", "email": "Ann@Example.com", "password": "pw"})
	require.Equal(t, fiber.StatusCreated, status)
	u := decode[map[string]any](t, body)
	assert.Equal(t, "ann@example.com", u["email"])
	assert.NotContains(t, string(body), "password")

	status, _ = do(t, app, "POST", "/auth/register", "", fiber.Map{"name": "Other", "email": "ann@example.com", "password": "x"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = do(t, app, "POST", "/auth/register", "", fiber.Map{"name": "Bad", "email": "nope", "password": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/auth/register", "", "{not json")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	app := newTestApp(t)
	signup(t, app, "a@example.com")

	s1, b1 := do(t, app, "POST", "/auth/login", "", fiber.Map{"email": "a@example.com", "password": "wrong"})
	s2, b2 := do(t, app, "POST", "/auth/login", "", fiber.Map{"email": "ghost@example.com", "password": "pw"})
	assert.Equal(t, fiber.StatusUnauthorized, s1)
	assert.Equal(t, s1, s2)
	assert.JSONEq(t, string(b1), string(b2))
}

func TestReloginInvalidatesOldToken(t *testing.T) {
	app := newTestApp(t)
	old := signup(t, app, "a@example.com")

	status, body := do(t, app, "POST", "/auth/login", "", fiber.Map{"email": "a@example.com", "password": "pw"})
	require.Equal(t, fiber.StatusOK, status)
	fresh := decode[map[string]any](t, body)["token"].(string)

	status, _ = do(t, app, "GET", "/auth/me", old, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = do(t, app, "GET", "/auth/me", fresh, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMeAndLogout(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	status, _ := do(t, app, "PUT", "/auth/me", token, fiber.Map{"name": "Renamed"})
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "GET", "/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	me := decode[map[string]any](t, body)
	assert.Equal(t, "Renamed", me["name"])
	assert.Equal(t, "a@example.com", me["email"])

	status, _ = do(t, app, "PUT", "/auth/me", token, fiber.Map{"name": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/auth/logout", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "GET", "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestApplianceIsolation(t *testing.T) {
	app := newTestApp(t)
	a := signup(t, app, "a@example.com")
	b := signup(t, app, "b@example.com")

	status, body := do(t, app, "POST", "/appliances", a, fiber.Map{"name": "Kettle", "power_rating": 2000})
	require.Equal(t, fiber.StatusCreated, status)
	created := decode[domain.Appliance](t, body)
	path := "/appliances/" + itoa(created.ID)

	status, body = do(t, app, "GET", "/appliances", b, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))

	for _, m := range []string{"GET", "DELETE"} {
		status, _ = do(t, app, m, path, b, nil)
		assert.Equal(t, fiber.StatusNotFound, status, m)
	}
	status, _ = do(t, app, "PUT", path, b, fiber.Map{"name": "Mine"})
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = do(t, app, "POST", "/control/toggle/"+itoa(created.ID), b, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = do(t, app, "GET", path, a, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Kettle", decode[domain.Appliance](t, body).Name)
}

func TestAppliancePartialUpdate(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")
	status, body := do(t, app, "POST", "/appliances", token, fiber.Map{"name": "AC", "type": "HVAC", "room": "Living Room", "power_rating": 1500})
	require.Equal(t, fiber.StatusCreated, status)
	id := itoa(decode[domain.Appliance](t, body).ID)

	status, body = do(t, app, "PUT", "/appliances/"+id, token, fiber.Map{})
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"message":"No changes"}`, string(body))

	status, _ = do(t, app, "PUT", "/appliances/"+id, token, fiber.Map{"room": "Bedroom"})
	require.Equal(t, fiber.StatusOK, status)

	_, body = do(t, app, "GET", "/appliances/"+id, token, nil)
	got := decode[domain.Appliance](t, body)
	assert.Equal(t, "Bedroom", *got.Room)
	assert.Equal(t, "AC", got.Name)
	assert.Equal(t, "HVAC", *got.Type)
	assert.Equal(t, 1500.0, got.PowerRating)

	status, body = do(t, app, "PUT", "/appliances/"+id, token, `{"room":null}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"message":"Updated"}`, string(body))
	_, body = do(t, app, "GET", "/appliances/"+id, token, nil)
	got = decode[domain.Appliance](t, body)
	assert.Nil(t, got.Room)
	assert.Equal(t, "HVAC", *got.Type)

	for _, bad := range []string{`{"name":null}`, `{"power_rating":null}`, `{"is_on":null}`, `{"is_on":"maybe"}`} {
		status, _ = do(t, app, "PUT", "/appliances/"+id, token, bad)
		assert.Equal(t, fiber.StatusBadRequest, status, bad)
	}

	status, _ = do(t, app, "PUT", "/appliances/abc", token, fiber.Map{"room": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "DELETE", "/appliances/"+id, token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "DELETE", "/appliances/"+id, token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestControlRoutes(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")
	_, body := do(t, app, "POST", "/appliances", token, fiber.Map{"name": "Fan"})
	id := itoa(decode[domain.Appliance](t, body).ID)

	status, body := do(t, app, "POST", "/control/toggle/"+id, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"appliance_id":`+id+`,"is_on":true}`, string(body))

	status, body = do(t, app, "POST", "/control/set/"+id+"?is_on=false", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"appliance_id":`+id+`,"is_on":false}`, string(body))

	status, _ = do(t, app, "POST", "/control/set/"+id, token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestIngestAndQuery(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	status, _ := do(t, app, "POST", "/energy/ingest", token, "[]")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, "POST", "/energy/ingest", token, `[
		{"consumption": 0.5},
		{"consumption": "0.25", "timestamp": "2024-06-01T11:00"},
		{"consumption": 1, "timestamp": "2024-05-20T00:00:00"}
	]`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.JSONEq(t, `{"inserted":3}`, string(body))

	status, body = do(t, app, "GET", "/energy", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	rows := decode[[]domain.Reading](t, body)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-06-01T11:00:00", rows[0].Timestamp)
	assert.Equal(t, "2024-06-01T12:00:00", rows[1].Timestamp)
	assert.Equal(t, 230.0, rows[1].Voltage)

	status, body = do(t, app, "GET", "/energy?start=2024-05-01&end=not-a-date", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.Reading](t, body), 3)

	status, _ = do(t, app, "POST", "/energy/ingest", token, `[{"timestamp":"2024-06-01T11:00"}]`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = do(t, app, "POST", "/energy/ingest", token, `[{"consumption":"lots"}]`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestIngestRejectsNonFiniteValues(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	for _, bad := range []string{
		`[{"consumption":"NaN"}]`,
		`[{"consumption":1,"voltage":"Infinity"}]`,
		`[{"consumption":1},{"consumption":1,"current":"-Inf"}]`,
	} {
		status, _ := do(t, app, "POST", "/energy/ingest", token, bad)
		assert.Equal(t, fiber.StatusBadRequest, status, bad)
	}

	for _, path := range []string{"/energy", "/energy/realtime", "/energy/summary?period=day"} {
		status, body := do(t, app, "GET", path, token, nil)
		assert.Equal(t, fiber.StatusOK, status, path)
		assert.JSONEq(t, "[]", string(body), path)
	}
	status, _ := do(t, app, "POST", "/forecast", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestQueryRejectsNonIntegerApplianceFilter(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")
	_, body := do(t, app, "POST", "/appliances", token, fiber.Map{"name": "Fan"})
	id := itoa(decode[domain.Appliance](t, body).ID)
	status, _ := do(t, app, "POST", "/energy/ingest", token, `[{"consumption":1,"appliance_id":`+id+`},{"consumption":2}]`)
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, "GET", "/energy?appliance_id="+id, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]domain.Reading](t, body), 1)

	status, body = do(t, app, "GET", "/energy?appliance_id=fan", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "appliance_id")
}

func TestEnergyIsolation(t *testing.T) {
	app := newTestApp(t)
	a := signup(t, app, "a@example.com")
	b := signup(t, app, "b@example.com")
	status, _ := do(t, app, "POST", "/energy/ingest", a, `[{"consumption":1}]`)
	require.Equal(t, fiber.StatusOK, status)

	for _, path := range []string{"/energy", "/energy/realtime", "/energy/summary"} {
		status, body := do(t, app, "GET", path, b, nil)
		assert.Equal(t, fiber.StatusOK, status, path)
		assert.JSONEq(t, "[]", string(body), path)
	}
}

func TestSummary(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")
	status, _ := do(t, app, "POST", "/energy/ingest", token, `[
		{"timestamp":"2024-01-01T00:00","consumption":1},
		{"timestamp":"2024-01-01T23:00","consumption":2},
		{"timestamp":"2024-01-02T05:00","consumption":3}
	]`)
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "GET", "/energy/summary?period=day", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[{"period":"2024-01-01","total":3},{"period":"2024-01-02","total":3}]`, string(body))

	status, body = do(t, app, "GET", "/energy/summary", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[{"period":"2024-01-01","total":3},{"period":"2024-01-02","total":3}]`, string(body))

	status, body = do(t, app, "GET", "/energy/summary?period=WEEK", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[{"period":"01","total":6}]`, string(body))

	status, _ = do(t, app, "GET", "/energy/summary?period=fortnight", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRealtime(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	var batch []map[string]any
	for i := 0; i < 15; i++ {
		batch = append(batch, map[string]any{
			"timestamp":   domain.FormatTimestamp(testNow.Add(-time.Duration(i) * time.Minute)),
			"consumption": float64(i),
		})
	}
	status, _ := do(t, app, "POST", "/energy/ingest", token, batch)
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "GET", "/energy/realtime", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	rows := decode[[]domain.Reading](t, body)
	require.Len(t, rows, 10)
	assert.Equal(t, 9.0, rows[0].Consumption)
	assert.Equal(t, 0.0, rows[9].Consumption)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].Timestamp, rows[i].Timestamp)
	}
}

func TestForecast(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")

	type resp struct {
		Points []domain.ForecastPoint `json:"points"`
	}

	status, body := do(t, app, "POST", "/forecast", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[resp](t, body).Points, service.DefaultHorizonHours)

	status, body = do(t, app, "POST", "/forecast", token, fiber.Map{"horizon_hours": 3})
	require.Equal(t, fiber.StatusOK, status)
	points := decode[resp](t, body).Points
	require.Len(t, points, 3)
	for i, p := range points {
		assert.Equal(t, domain.FormatTimestamp(testNow.Add(time.Duration(i+1)*time.Hour)), p.Timestamp)
		assert.GreaterOrEqual(t, p.Consumption, 0.01)
	}

	status, _ = do(t, app, "POST", "/forecast", token, fiber.Map{"horizon_hours": 0})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, body = do(t, app, "POST", "/forecast", token, fiber.Map{"horizon_hours": 500})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "service limit")
}

func TestMaintenanceRoute(t *testing.T) {
	app := newTestApp(t)
	a := signup(t, app, "a@example.com")
	b := signup(t, app, "b@example.com")
	_, body := do(t, app, "POST", "/appliances", a, fiber.Map{"name": "Boiler", "type": "Utility"})
	id := decode[domain.Appliance](t, body).ID

	status, body := do(t, app, "GET", "/appliances/"+itoa(id)+"/maintenance", a, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	p := decode[service.MaintenancePrediction](t, body)
	assert.Equal(t, id, p.ApplianceID)
	assert.NotEmpty(t, p.Recommendation)

	status, _ = do(t, app, "GET", "/appliances/"+itoa(id)+"/maintenance", b, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAnalyticsRoute(t *testing.T) {
	app := newTestApp(t)
	token := signup(t, app, "a@example.com")
	status, _ := do(t, app, "POST", "/energy/ingest", token, `[{"timestamp":"2024-05-31T10:00","consumption":2}]`)
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "GET", "/energy/analytics?date=2024-05-31", token, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	out := decode[service.DailyAnalytics](t, body)
	assert.Equal(t, 1, out.ReadingCount)
	assert.Equal(t, "2024-05-31T10", out.PeakHour)

	status, _ = do(t, app, "GET", "/energy/analytics?date=yesterday", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})
	req := httptest.NewRequest("GET", "/boom", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal error"}`, string(data))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
