package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mmdatafocus/voucher_desk/utils"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	UserRole       string `json:"user_role"`
	OrganizationId any    `json:"organization_id"`
	IsSuperAdmin   bool   `json:"is_super_admin"`
}

// Company is the tenant the signed-in user belongs to.
type Company struct {
	Id        int             `json:"id"`
	Name      string          `json:"name"`
	GstNumber string          `json:"gst_number"`
	StateCode string          `json:"state_code"`
	Raw       json.RawMessage `json:"-"`
}

// Login exchanges credentials for a token, stores it in the session and marks the session ready.
// It never waits for the session to become ready.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	ctx = utils.SetUsernameInContext(utils.SetPublicEndpointInContext(ctx), email)
	var out LoginResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.session.SetCredentials(out.AccessToken, out.UserRole)
	if out.OrganizationId != nil {
		c.session.SetTenantId(fmt.Sprint(out.OrganizationId))
	}
	c.session.MarkReady()
	return &out, nil
}

// Logout clears the local session; the backend keeps no server side state to end.
func (c *Client) Logout() {
	c.session.Clear()
}

// CurrentTenant probes the signed-in user's company. ErrTenantSetupRequired means onboarding is needed.
func (c *Client) CurrentTenant(ctx context.Context) (*Company, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, TenantProbePath, nil, nil, &raw); err != nil {
		return nil, err
	}
	company := &Company{Raw: raw}
	if err := json.Unmarshal(raw, company); err != nil {
		return nil, err
	}
	company.Raw = raw
	return company, nil
}
