package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"rms/src/db"
	"rms/src/middlewares"
	"rms/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	Token string
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	mockdb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockdb}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	registerValidators()

	// set after package init so signing and verification must both read
	// the env at call time
	os.Setenv("JWT_SECRET", "test-secret")

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock

	token, err := generateJWT("someone@example.com", 1)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
	}
	s.Token = token
}

// expectAuthUser queues the user lookup the auth middleware performs on
// every authorized request.
func (s *TestSuite) expectAuthUser() {
	s.Mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "email", "role"}).
			AddRow(1, "Test User", "someone@example.com", "guest"))
}

func (s *TestSuite) authorizedRouter() *gin.Engine {
	router := setupRouter()
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	reservationHandlers(authorized)
	cartHandlers(authorized)
	paymentHandlers(authorized)
	receiptHandlers(authorized)
	return router
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestSecureHeaders() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(s.T(), "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Setenv("MAINTENANCE_MODE", "false")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestPublicTables() {
	router := setupRouter()
	publicRoutes(router)

	s.Mock.ExpectQuery(`SELECT (.+) FROM "tables"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "table_number", "capacity", "min_guests", "max_guests", "is_available", "is_reservable", "status"}).
			AddRow(1, "Window table", 1, 4, 1, 4, true, true, "active").
			AddRow(2, "Patio table", 2, 6, 2, 6, true, true, "active"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/tables", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	sjson := string(rbytes)
	assert.Equal(s.T(), int64(2), gjson.Get(sjson, "count").Int())
	assert.Equal(s.T(), "Window table", gjson.Get(sjson, "data.0.name").String())
}

func (s *TestSuite) TestReservationsRequireAuth() {
	router := s.authorizedRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestAuthRejectsTokenSignedWithWrongKey() {
	router := s.authorizedRouter()

	claims := &types.Claims{
		Email: "someone@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(""))
	assert.Nil(s.T(), err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", forged))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 401, w.Code)
}

func (s *TestSuite) TestReservationValidation() {
	router := s.authorizedRouter()

	s.Run("Should return 422 on a body missing required fields", func() {
		s.expectAuthUser()
		w := httptest.NewRecorder()
		body := `{"guest_count": 2}`
		req, _ := http.NewRequest("POST", "/api/v1/reservations/5", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.NotEmpty(s.T(), gjson.Get(string(rbytes), "error").String())
	})

	s.Run("Should return 422 on a past reservation date", func() {
		s.expectAuthUser()
		w := httptest.NewRecorder()
		body := `{"reservation_date":"2020-01-01","arrival_day":"Wednesday","reservation_time":"19:00","guest_count":2}`
		req, _ := http.NewRequest("POST", "/api/v1/reservations/5", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})

	s.Run("Should return 422 on a same-day reservation date", func() {
		s.expectAuthUser()
		w := httptest.NewRecorder()
		today := time.Now()
		body := fmt.Sprintf(
			`{"reservation_date":"%s","arrival_day":"%s","reservation_time":"00:00","guest_count":2}`,
			today.Format("2006-01-02"), today.Weekday().String())
		req, _ := http.NewRequest("POST", "/api/v1/reservations/5", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})

	s.Run("Should return 422 on a malformed reservation time", func() {
		s.expectAuthUser()
		w := httptest.NewRecorder()
		body := `{"reservation_date":"2030-01-01","arrival_day":"Tuesday","reservation_time":"late","guest_count":2}`
		req, _ := http.NewRequest("POST", "/api/v1/reservations/5", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 422, w.Code)
	})
}

func (s *TestSuite) TestListReservationsEmpty() {
	router := s.authorizedRouter()

	s.expectAuthUser()
	s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/reservations", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 404, w.Code)
}

func (s *TestSuite) TestPaymentVerifyRequiresSessionId() {
	router := s.authorizedRouter()

	s.expectAuthUser()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/payment/verify", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 422, w.Code)
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
