package handlers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hustlefy/hustlefy_be/internal/models"
	"github.com/hustlefy/hustlefy_be/internal/utils"
)

// OTPHandler implements email-verified signup: send-otp emails a
// 6-digit code for a prospective account, verify-otp checks it and
// completes the registration. Codes live in redis under a TTL;
// repeated wrong guesses lock the email out.
type OTPHandler struct {
	DB          *gorm.DB
	RDB         *redis.Client
	JWTSecret   string
	Expires     int
	TTL         time.Duration
	MaxAttempts int
}

func NewOTPHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string, expires int, ttl time.Duration, maxAttempts int) *OTPHandler {
	return &OTPHandler{DB: db, RDB: rdb, JWTSecret: jwtSecret, Expires: expires, TTL: ttl, MaxAttempts: maxAttempts}
}

func otpCodeKey(email string) string     { return "otp:code:" + email }
func otpAttemptsKey(email string) string { return "otp:attempts:" + email }
func otpLockKey(email string) string     { return "otp:lock:" + email }

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type sendOTPReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validateSignup screens the email/password pair before any code is
// issued, so the signup form hears about problems on the first step.
func validateSignup(email, password string) string {
	if email == "" {
		return "Email is required"
	}
	if !strings.Contains(email, "@") {
		return "Invalid email format"
	}
	if password == "" {
		return "Password is required"
	}
	if len(password) < 6 {
		return "Password must be at least 6 characters"
	}
	return ""
}

func (h *OTPHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	if msg := validateSignup(email, password); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email is already registered",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	ctx := c.Context()

	locked, err := h.RDB.Exists(ctx, otpLockKey(email)).Result()
	if err != nil {
		log.Println("OTP redis error:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}
	if locked > 0 {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "Too many attempts. Try again later.",
		})
	}

	code, err := generateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to generate code",
		})
	}

	pipe := h.RDB.Pipeline()
	pipe.Set(ctx, otpCodeKey(email), code, h.TTL)
	pipe.Del(ctx, otpAttemptsKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Println("OTP redis error:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	// Email gateway hookup pending; the code lands in the server log
	// so staging signups stay testable.
	log.Printf("Signup OTP for %s: %s", email, code)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent",
	})
}

type verifyOTPReq struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	Role     string `json:"role"` // optional; defaults to seeker
}

// VerifyOTP checks the signup code and, on a match, creates the
// account and signs the user straight in. The signup form only
// collects email and password; name, phone and the rest arrive during
// onboarding. Response keeps user/token at the top level like the
// Google endpoint.
func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	code := strings.TrimSpace(req.OTP)

	if msg := validateSignup(email, password); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": msg,
		})
	}
	if len(code) != 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Please enter a valid 6-digit OTP",
		})
	}

	ctx := c.Context()

	locked, _ := h.RDB.Exists(ctx, otpLockKey(email)).Result()
	if locked > 0 {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success": false,
			"message": "Too many attempts. Try again later.",
		})
	}

	stored, err := h.RDB.Get(ctx, otpCodeKey(email)).Result()
	if err == redis.Nil || stored == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Code expired. Request a new one.",
		})
	}
	if err != nil {
		log.Println("OTP redis error:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	if stored != code {
		attempts, _ := h.RDB.Incr(ctx, otpAttemptsKey(email)).Result()
		h.RDB.Expire(ctx, otpAttemptsKey(email), h.TTL)
		if int(attempts) >= h.MaxAttempts {
			h.RDB.Set(ctx, otpLockKey(email), "1", 15*time.Minute)
			h.RDB.Del(ctx, otpCodeKey(email))
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid OTP",
		})
	}

	h.RDB.Del(ctx, otpCodeKey(email), otpAttemptsKey(email))

	// re-check under the unique index; the code may have raced a
	// direct /auth/register for the same address
	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email is already registered",
		})
	} else if err != gorm.ErrRecordNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Something went wrong",
		})
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process password",
		})
	}

	role := models.RoleSeeker
	if strings.ToLower(strings.TrimSpace(req.Role)) == string(models.RoleProvider) {
		role = models.RoleProvider
	}

	u := models.User{
		Email:    email,
		Password: pw,
		Role:     role,
		IsActive: true,
	}
	if err := h.DB.Create(&u).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create account",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created",
		"user":    userPayload(&u),
		"token":   token,
	})
}
