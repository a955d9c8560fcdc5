package test

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) getNoAuth(ctx context.Context, path string) (*http.Response, []byte) {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s%s", serverEndpoint, path),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp, respBytes
}

func (s *IntegrationTestSuite) TestMisc_Health() {
	resp, respBytes := s.getNoAuth(context.Background(), "/api/health")
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), `{"message":"I'm OK, thanks"}`, string(respBytes))
}

func (s *IntegrationTestSuite) TestMisc_Version() {
	resp, respBytes := s.getNoAuth(context.Background(), "/api/version")
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Equal(s.T(), `{"version":"test-version-info"}`, string(respBytes))
}

func (s *IntegrationTestSuite) TestMisc_UnknownPath() {
	resp, _ := s.getNoAuth(context.Background(), "/nope")
	require.Equal(s.T(), http.StatusNotFound, resp.StatusCode)
}
