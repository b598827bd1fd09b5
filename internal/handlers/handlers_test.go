package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/collegeconnect/backend/internal/auth"
	"github.com/collegeconnect/backend/internal/database"
	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/models"
	"github.com/collegeconnect/backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Initialize("error", "")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// HandlersTestSuite runs the API against a real MongoDB. Tests skip
// when no database is reachable.
type HandlersTestSuite struct {
	suite.Suite
	db     *database.MongoDB
	router *gin.Engine
}

func (suite *HandlersTestSuite) SetupSuite() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{
		URI:           uri,
		Name:          "collegeconnect_test",
		RetryCount:    1,
		RetryInterval: time.Second,
	})
	if err != nil {
		suite.T().Skipf("Skipping handler tests: database not available (%v)", err)
		return
	}
	suite.db = db

	require.NoError(suite.T(), db.Database.Drop(ctx))
	require.NoError(suite.T(), db.EnsureIndexes(ctx))

	repos := Repos{
		Users:         repository.NewUsers(db),
		Messages:      repository.NewMessages(db),
		Items:         repository.NewItems(db),
		Posts:         repository.NewPosts(db),
		Trips:         repository.NewTrips(db),
		Notifications: repository.NewNotifications(db),
		Reports:       repository.NewReports(db),
		Colleges:      repository.NewColleges(db),
		Contacts:      repository.NewContacts(db),
	}

	// Domain matches the test accounts so signup auto-verifies and
	// login works without following a mailed link.
	require.NoError(suite.T(), repos.Colleges.Create(ctx, &models.College{
		Name:         "Test University",
		EmailDomains: []string{"test.edu"},
	}))

	authService := auth.NewService([]byte("handlers-test-secret"), repos.Users, repos.Colleges, nil)
	h := NewHandlers(authService, repos)

	suite.router = gin.New()
	h.RegisterRoutes(suite.router)
}

func (suite *HandlersTestSuite) TearDownSuite() {
	if suite.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		suite.db.Database.Drop(ctx)
		suite.db.Close(ctx)
	}
}

func (suite *HandlersTestSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "identity")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signup registers and logs in an account on the seeded college
// domain, returning the session token and user id.
func (suite *HandlersTestSuite) signup(name, local string) (token, userID, email string) {
	email = fmt.Sprintf("%s-%d@test.edu", local, time.Now().UnixNano())

	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "sup3rSecret!",
		"college":  "Test University",
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "sup3rSecret!",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	body := suite.decode(w)
	token = body["token"].(string)
	user := body["user"].(map[string]any)
	userID = user["id"].(string)
	return token, userID, email
}

func (suite *HandlersTestSuite) TestHealthCheck() {
	w := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterRejectsWeakPassword() {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Weak Pass",
		"email":    "weak@test.edu",
		"password": "short",
		"college":  "Test University",
	})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestRegisterRejectsUnknownCollege() {
	w := suite.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "No College",
		"email":    "nobody@test.edu",
		"password": "sup3rSecret!",
		"college":  "Nowhere State",
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestLoginWithWrongPassword() {
	_, _, email := suite.signup("Wrong Pass", "wrongpass")

	w := suite.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "not-the-password1!",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestProtectedRouteRequiresToken() {
	w := suite.request(http.MethodGet, "/api/v1/users/me", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request(http.MethodGet, "/api/v1/users/me", "garbage-token", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestGetMe() {
	token, userID, email := suite.signup("Me Myself", "getme")

	w := suite.request(http.MethodGet, "/api/v1/users/me", token, nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	user := body["user"].(map[string]any)
	suite.Equal(userID, user["id"])
	suite.Equal(email, user["email"])
	suite.Equal("Test University", user["college"])
}

func (suite *HandlersTestSuite) TestFriendRequestFlow() {
	aliceToken, _, _ := suite.signup("Alice Sender", "alice")
	bobToken, bobID, _ := suite.signup("Bob Receiver", "bob")

	w := suite.request(http.MethodPost, "/api/v1/friends/requests/"+bobID, aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// Duplicate request is rejected
	w = suite.request(http.MethodPost, "/api/v1/friends/requests/"+bobID, aliceToken, nil)
	suite.Equal(http.StatusConflict, w.Code)

	// Bob sees the pending request
	w = suite.request(http.MethodGet, "/api/v1/friends/requests", bobToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	body := suite.decode(w)
	received := body["received"].([]any)
	suite.Len(received, 1)
	aliceRef := received[0].(map[string]any)
	aliceID := aliceRef["id"].(string)

	// Accept makes them friends both ways
	w = suite.request(http.MethodPost, "/api/v1/friends/requests/"+aliceID+"/accept", bobToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/v1/friends", aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Len(suite.decode(w)["friends"].([]any), 1)

	w = suite.request(http.MethodGet, "/api/v1/friends", bobToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Len(suite.decode(w)["friends"].([]any), 1)
}

func (suite *HandlersTestSuite) TestBlockedUserIsConcealed() {
	carolToken, carolID, _ := suite.signup("Carol Blocker", "carol")
	daveToken, daveID, _ := suite.signup("Dave Blocked", "dave")

	w := suite.request(http.MethodPost, "/api/v1/friends/blocked/"+daveID, carolToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// Dave cannot see or friend-request Carol anymore
	w = suite.request(http.MethodGet, "/api/v1/users/"+carolID, daveToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/friends/requests/"+carolID, daveToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	// Carol still sees Dave
	w = suite.request(http.MethodGet, "/api/v1/users/"+daveID, carolToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestChatHistoryConcealsBlocker() {
	eveToken, _, eveEmail := suite.signup("Eve Blocker", "eve")
	malToken, malID, _ := suite.signup("Mallory Blocked", "mallory")

	// Before the block the conversation loads fine.
	w := suite.request(http.MethodGet, "/api/v1/chat/history/"+eveEmail, malToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPost, "/api/v1/friends/blocked/"+malID, eveToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// Once blocked, Eve reads as nonexistent on the chat path too.
	w = suite.request(http.MethodGet, "/api/v1/chat/history/"+eveEmail, malToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestMarketplaceLifecycle() {
	sellerToken, _, _ := suite.signup("Sally Seller", "seller")
	buyerToken, buyerID, _ := suite.signup("Billy Buyer", "buyer")

	w := suite.request(http.MethodPost, "/api/v1/marketplace", sellerToken, gin.H{
		"title":       "Calculus textbook",
		"description": "Barely opened",
		"price":       20.5,
		"valid_days":  7,
	})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	item := suite.decode(w)["item"].(map[string]any)
	itemID := item["id"].(string)
	suite.Equal(string(models.ItemAvailable), item["status"])

	// Buyer from the same college sees the listing
	w = suite.request(http.MethodGet, "/api/v1/marketplace/"+itemID, buyerToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	// Only the seller can move the status
	w = suite.request(http.MethodPatch, "/api/v1/marketplace/"+itemID+"/status", buyerToken, gin.H{
		"status": models.ItemReserved, "reserved_for": buyerID,
	})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPatch, "/api/v1/marketplace/"+itemID+"/status", sellerToken, gin.H{
		"status": models.ItemReserved, "reserved_for": buyerID,
	})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request(http.MethodPatch, "/api/v1/marketplace/"+itemID+"/status", sellerToken, gin.H{
		"status": models.ItemSold,
	})
	suite.Equal(http.StatusOK, w.Code)

	// Sold is terminal
	w = suite.request(http.MethodPatch, "/api/v1/marketplace/"+itemID+"/status", sellerToken, gin.H{
		"status": models.ItemAvailable,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestForumPostAndReply() {
	authorToken, _, _ := suite.signup("Fiona Forum", "fiona")
	replierToken, _, _ := suite.signup("Randy Replier", "randy")

	w := suite.request(http.MethodPost, "/api/v1/forum", authorToken, gin.H{
		"title":      "Anyone taking CS 301 this fall?",
		"body":       "Looking for a study group.",
		"valid_days": 14,
	})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	postID := suite.decode(w)["post"].(map[string]any)["id"].(string)

	w = suite.request(http.MethodPost, "/api/v1/forum/"+postID+"/replies", replierToken, gin.H{
		"text": "Count me in.",
	})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	w = suite.request(http.MethodGet, "/api/v1/forum/"+postID, authorToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	post := suite.decode(w)["post"].(map[string]any)
	suite.Len(post["replies"].([]any), 1)

	// Replier cannot delete someone else's post
	w = suite.request(http.MethodDelete, "/api/v1/forum/"+postID, replierToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodDelete, "/api/v1/forum/"+postID, authorToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestTripJoinAndApprove() {
	orgToken, _, _ := suite.signup("Olive Organizer", "olive")
	riderToken, riderID, _ := suite.signup("Riley Rider", "riley")

	w := suite.request(http.MethodPost, "/api/v1/trips", orgToken, gin.H{
		"from":      "Campus",
		"to":        "Airport",
		"depart_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"capacity":  3,
	})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	tripID := suite.decode(w)["trip"].(map[string]any)["id"].(string)

	w = suite.request(http.MethodPost, "/api/v1/trips/"+tripID+"/join", riderToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// Rider cannot approve their own request
	w = suite.request(http.MethodPost, "/api/v1/trips/"+tripID+"/requests/"+riderID+"/approve", riderToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request(http.MethodPost, "/api/v1/trips/"+tripID+"/requests/"+riderID+"/approve", orgToken, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// Rider got a notification for the approval
	w = suite.request(http.MethodGet, "/api/v1/notifications", riderToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(suite.decode(w)["notifications"].([]any))
}

func (suite *HandlersTestSuite) TestContactIsPublic() {
	w := suite.request(http.MethodPost, "/api/v1/contact", "", gin.H{
		"name":  "Visitor",
		"email": "visitor@example.com",
		"body":  "How do I delete my account?",
	})
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) TestCollegeSearchIsPublic() {
	w := suite.request(http.MethodGet, "/api/v1/colleges?q=Test", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(suite.decode(w)["colleges"].([]any))
}

func (suite *HandlersTestSuite) TestModerationRequiresRole() {
	token, _, _ := suite.signup("Normal User", "normie")

	w := suite.request(http.MethodGet, "/api/v1/moderation/reports", token, nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
