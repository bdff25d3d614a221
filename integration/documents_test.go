package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeren/crpt-gateway/config"
	"github.com/akeren/crpt-gateway/config/router"
	"github.com/akeren/crpt-gateway/domain"
	"github.com/akeren/crpt-gateway/internal/log"
	"github.com/akeren/crpt-gateway/pkg/retry"
	"github.com/akeren/crpt-gateway/pkg/submitter"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	submitWindow = 200 * time.Millisecond
	submitLimit  = 2
	signature    = "c2lnbmF0dXJl"
)

const documentBody = `{
	"doc_id": "doc-100",
	"doc_type": {"lp_introduce_goods": 109},
	"owner_inn": "7701111111",
	"production_date": "2020-01-23",
	"products": [{"uit_code": "010460", "tnved_code": "6401"}]
}`

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type DocumentsAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	upstream  *httptest.Server
	server    *httptest.Server
	appConfig *config.ApplicationConfig

	upstreamStatus atomic.Int32
	upstreamHits   atomic.Int32
	lastSignature  atomic.Value
}

func (s *DocumentsAPITestSuite) SetupSuite() {
	logger := log.NewLoggerWithJSONOutput()

	dbCfg := &config.DBConfig{
		Driver:     config.DatabaseDriverSQLite,
		SQLitePath: filepath.Join(s.T().TempDir(), "receipts.db"),
		Retry:      &retry.Config{MaxAttempts: 1},
	}
	s.T().Setenv("MIGRATIONS_DIR", filepath.Join("..", "migrations", "sqlite3"))
	s.Require().NoError(config.RunMigrations(s.T().Context(), logger, dbCfg))

	var err error
	s.db, err = config.NewDatabase(logger, dbCfg)
	s.Require().NoError(err)

	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.upstreamHits.Add(1)
		s.lastSignature.Store(r.Header.Get("Signature"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(int(s.upstreamStatus.Load()))
	}))

	registry := router.NewMetricsRegistry()
	sub, err := submitter.New(submitter.Config{
		Endpoint:     s.upstream.URL,
		TimeUnit:     submitWindow,
		RequestLimit: submitLimit,
		Timeout:      5 * time.Second,
	}, submitter.WithLogger(logger), submitter.WithRegisterer(registry))
	s.Require().NoError(err)

	s.appConfig = &config.ApplicationConfig{
		DB:        s.db,
		Logger:    logger,
		Submitter: sub,
		Registry:  registry,
	}
	s.appConfig.RouterService = router.CreateRouterService(logger, nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
		Registry:          registry,
	})

	domain.SetupCoreDomain(s.appConfig)

	s.server = httptest.NewServer(s.appConfig.RouterService.GetEngine())
}

func (s *DocumentsAPITestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.upstream != nil {
		s.upstream.Close()
	}
	config.CloseDatabase(s.db, s.appConfig.Logger)
}

func (s *DocumentsAPITestSuite) SetupTest() {
	s.db.Exec("DELETE FROM submission_receipts")
	s.upstreamStatus.Store(http.StatusOK)
	s.upstreamHits.Store(0)
}

func (s *DocumentsAPITestSuite) do(method, path, body string, headers map[string]string) (*http.Response, envelope) {
	req, err := http.NewRequest(method, s.server.URL+path, bytes.NewBufferString(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (s *DocumentsAPITestSuite) submit() (*http.Response, envelope) {
	return s.do(http.MethodPost, "/v1/documents", documentBody, map[string]string{"Signature": signature})
}

func (s *DocumentsAPITestSuite) TestSubmit_AcceptedIsJournaled() {
	resp, env := s.submit()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(signature, s.lastSignature.Load())

	var result struct {
		ReceiptID string `json:"receipt_id"`
		Accepted  bool   `json:"accepted"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	s.True(result.Accepted)
	s.Require().NotEmpty(result.ReceiptID)

	resp, env = s.do(http.MethodGet, "/v1/documents/receipts/"+result.ReceiptID, "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var receipt struct {
		DocID          string `json:"doc_id"`
		DocType        string `json:"doc_type"`
		UpstreamStatus int    `json:"upstream_status"`
		PayloadSHA256  string `json:"payload_sha256"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &receipt))
	s.Equal("doc-100", receipt.DocID)
	s.Equal("LP_INTRODUCE_GOODS", receipt.DocType)
	s.Equal(http.StatusOK, receipt.UpstreamStatus)
	s.Len(receipt.PayloadSHA256, 64)
}

func (s *DocumentsAPITestSuite) TestSubmit_RejectedIsBadGateway() {
	s.upstreamStatus.Store(http.StatusUnauthorized)

	resp, env := s.submit()
	s.Equal(http.StatusBadGateway, resp.StatusCode)
	s.Contains(string(env.Data), `"upstream_status":401`)

	resp, env = s.do(http.MethodGet, "/v1/documents/receipts", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(env.Data), `"error_type":"UPSTREAM_REJECTED"`)
}

func (s *DocumentsAPITestSuite) TestSubmit_WithoutSignatureNeverReachesUpstream() {
	resp, _ := s.do(http.MethodPost, "/v1/documents", documentBody, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal(int32(0), s.upstreamHits.Load())
}

func (s *DocumentsAPITestSuite) TestSubmit_OutgoingRateIsLimited() {
	const callers = submitLimit + 1

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := s.submit()
			s.Equal(http.StatusOK, resp.StatusCode)
		}()
	}
	wg.Wait()

	s.GreaterOrEqual(time.Since(start), submitWindow)
	s.Equal(int32(callers), s.upstreamHits.Load())
}

func (s *DocumentsAPITestSuite) TestNormalize() {
	resp, env := s.do(http.MethodPost, "/v1/documents/normalize", documentBody, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(env.Data), `"LP_INTRODUCE_GOODS":109`)
	s.Equal(int32(0), s.upstreamHits.Load())
}

func (s *DocumentsAPITestSuite) TestHealthReportsSubmitter() {
	resp, env := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health struct {
		Database  int `json:"database"`
		Submitter struct {
			Limiter struct {
				Limit int `json:"limit"`
			} `json:"limiter"`
		} `json:"submitter"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &health))
	s.Equal(1, health.Database)
	s.Equal(submitLimit, health.Submitter.Limiter.Limit)
}

func (s *DocumentsAPITestSuite) TestMetricsExposeSubmissions() {
	s.submit()

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `crpt_submissions_total{outcome="accepted"}`)
	s.Contains(string(body), "crpt_submission_slots_in_flight")
}

func TestDocumentsAPITestSuite(t *testing.T) {
	suite.Run(t, new(DocumentsAPITestSuite))
}
