package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/utils"
)

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	JWTSecret       string
	Expires         int
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string

	// TokenInfoURL is overridable in tests.
	TokenInfoURL string
}

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type googleLoginReq struct {
	Credential string `json:"credential"`
	Role       string `json:"role"` // only honored for new accounts
}

// GoogleLogin handles the Google Sign-In button flow: the shell posts
// the ID credential, we verify it against tokeninfo and upsert by
// email. Response keeps user/token at the top level, unlike the
// credential login envelope.
func (h *GoogleOAuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var req googleLoginReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Credential) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing Google credential",
		})
	}

	infoURL := h.TokenInfoURL
	if infoURL == "" {
		infoURL = defaultTokenInfoURL
	}

	resp, err := http.Get(infoURL + "?id_token=" + url.QueryEscape(req.Credential))
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Failed to verify Google credential",
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid Google credential",
		})
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"message": "Failed to decode Google response",
		})
	}

	if h.GoogleClientID != "" && info.Aud != h.GoogleClientID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Credential was issued for a different client",
		})
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	name := strings.TrimSpace(info.Name)
	if email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Email not found from Google",
		})
	}

	u, isNew, err := h.upsertByEmail(email, name, req.Role)
	if err != nil {
		log.Println("Error upserting user via Google:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create account",
		})
	}

	if !u.IsActive {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Account is inactive",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Login successful",
		"user":      userPayload(u),
		"token":     token,
		"isNewUser": isNew,
	})
}

func (h *GoogleOAuthHandler) upsertByEmail(email, name, role string) (*models.User, bool, error) {
	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error

	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	if err == gorm.ErrRecordNotFound {
		r := models.RoleSeeker
		if strings.ToLower(strings.TrimSpace(role)) == string(models.RoleProvider) {
			r = models.RoleProvider
		}
		// password column is not null; Google accounts get a random
		// one that never works for credential login
		hashed, _ := utils.HashPassword(randomState(24))
		u = models.User{
			Name:     name,
			Email:    email,
			Password: hashed,
			Role:     r,
			IsActive: true,
		}
		if err := h.DB.Create(&u).Error; err != nil {
			return nil, false, err
		}
		return &u, true, nil
	}

	if name != "" && u.Name != name {
		u.Name = name
		_ = h.DB.Save(&u).Error
	}
	return &u, false, nil
}

// GoogleStart begins the browser redirect flow used by the web build.
func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/")
	st := randomState(32)

	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_next",
		Value:    next,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)

	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleCallback finishes the redirect flow and hands the token to the
// frontend via the redirect URL fragment.
func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}

	stCookie := c.Cookies("oauth_state")
	next := c.Cookies("oauth_next")
	if next == "" {
		next = "/"
	}

	if stCookie == "" || stCookie != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to exchange code")
	}

	client := h.oauthCfg().Client(c.Context(), tok)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to fetch userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to decode userinfo")
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))
	name := strings.TrimSpace(gu.Name)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Email not found from Google")
	}

	u, _, err := h.upsertByEmail(email, name, "")
	if err != nil {
		log.Println("Error upserting user via Google:", err)
		return c.Status(fiber.StatusInternalServerError).SendString("DB error")
	}

	if !u.IsActive {
		u2 := h.FrontendBaseURL + "/login?err=" + url.QueryEscape("Account is inactive")
		return c.Redirect(u2, http.StatusTemporaryRedirect)
	}

	jwtToken, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign jwt")
	}

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, Secure: false, SameSite: "Lax"})
	c.Cookie(&fiber.Cookie{Name: "oauth_next", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, Secure: false, SameSite: "Lax"})

	if !strings.HasPrefix(next, "/") {
		next = "/"
	}
	redirectURL := h.FrontendBaseURL + next + "#token=" + url.QueryEscape(jwtToken)

	return c.Redirect(redirectURL, http.StatusTemporaryRedirect)
}
