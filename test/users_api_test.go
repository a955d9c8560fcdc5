package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/ironlog/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) registerRequest(
	ctx context.Context,
	token string,
	regReq users.RegisterRequest,
) (*http.Response, []byte) {
	reqJson, err := json.Marshal(regReq)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/api/auth/register", serverEndpoint),
		bytes.NewReader(reqJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp, respBytes
}

func (s *IntegrationTestSuite) meRequest(ctx context.Context, token string) (*http.Response, []byte) {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/api/auth/me", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp, respBytes
}

func (s *IntegrationTestSuite) TestUsers_RegisterAndMe() {
	ctx := context.Background()

	resp, respBytes := s.registerRequest(ctx, "", users.RegisterRequest{
		UID:      "reg-user-1",
		Email:    "reg1@ironlog.test",
		Username: "reguser",
	})
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var regResp users.RegisterResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &regResp))
	assert.Equal(s.T(), "reg-user-1", regResp.User.UID)
	assert.Equal(s.T(), "reg1@ironlog.test", regResp.User.Email)
	assert.Equal(s.T(), "reguser", regResp.User.Username)
	assert.False(s.T(), regResp.User.CreatedAt.IsZero())

	resp, respBytes = s.meRequest(ctx, testToken(s.T(), "reg-user-1", "reg1@ironlog.test", "reguser"))
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var meResp users.MeResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &meResp))
	assert.Equal(s.T(), "reg-user-1", meResp.User.UID)
	assert.Equal(s.T(), "reguser", meResp.User.Username)
}

func (s *IntegrationTestSuite) TestUsers_RegisterWithToken() {
	ctx := context.Background()

	// uid comes from the verified token, not the body
	token := testToken(s.T(), "reg-user-2", "reg2@ironlog.test", "")
	resp, respBytes := s.registerRequest(ctx, token, users.RegisterRequest{
		Email: "reg2@ironlog.test",
	})
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var regResp users.RegisterResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &regResp))
	assert.Equal(s.T(), "reg-user-2", regResp.User.UID)
	// no username given, falls back to the email local part
	assert.Equal(s.T(), "reg2", regResp.User.Username)
}

func (s *IntegrationTestSuite) TestUsers_RegisterUIDMismatch() {
	ctx := context.Background()

	token := testToken(s.T(), "reg-user-3", "reg3@ironlog.test", "")
	resp, _ := s.registerRequest(ctx, token, users.RegisterRequest{
		UID:   "somebody-else",
		Email: "reg3@ironlog.test",
	})
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestUsers_RegisterInvalidToken() {
	ctx := context.Background()

	resp, _ := s.registerRequest(ctx, "not-a-valid-token", users.RegisterRequest{
		UID:   "reg-user-4",
		Email: "reg4@ironlog.test",
	})
	require.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestUsers_MeUnknownUser() {
	ctx := context.Background()

	resp, _ := s.meRequest(ctx, testToken(s.T(), "never-registered", "ghost@ironlog.test", ""))
	require.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}
