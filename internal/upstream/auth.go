package upstream

import (
	"context"
	"net/http"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

// LoginResult is the payload returned by login, register and admin creation.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &result)
	return result, err
}

type registerRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role,omitempty"`
}

func (c *Client) Register(ctx context.Context, email, password, name string, role model.Role) (LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, registerRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     role,
	}, &result)
	return result, err
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &user)
	return user, err
}

// Logout invalidates the token server side. Callers treat failure as
// non-fatal; the local session is reset regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

type refreshResponse struct {
	Token string `json:"token"`
}

func (c *Client) Refresh(ctx context.Context) (string, error) {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

type addAdminRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func (c *Client) AddAdmin(ctx context.Context, email, password string, role model.Role) (LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/admins", nil, addAdminRequest{
		Email:    email,
		Password: password,
		Role:     role,
	}, &result)
	return result, err
}

func (c *Client) RemoveAdmin(ctx context.Context, adminID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/admins/"+adminID, nil, nil, nil)
}

func (c *Client) Admins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	err := c.do(ctx, http.MethodGet, "/auth/admins", nil, nil, &admins)
	return admins, err
}
