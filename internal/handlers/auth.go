package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"marketapi/internal/email"
	"marketapi/internal/models"
)

const passwordTokenTTL = 15 * time.Minute

type registerRequest struct {
	Name        string              `json:"name" binding:"required"`
	Surname     string              `json:"surname" binding:"required"`
	Email       string              `json:"email" binding:"required"`
	Password    string              `json:"password" binding:"required"`
	PhoneNumber string              `json:"phoneNumber"`
	Address     *models.UserAddress `json:"address"`
}

type verifyEmailRequest struct {
	VerificationToken string `json:"verificationToken" binding:"required"`
	Email             string `json:"email" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	PasswordToken string `json:"passwordToken" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

// nextUserRole decides the role for a new registration: the very first
// account becomes the admin, every later one a regular user.
func nextUserRole(existingUsers int64) string {
	if existingUsers == 0 {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// Register creates an account and mails (or returns) the verification
// token.
func Register(db *mongo.Database, mailer *email.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/register"
		defer handlePanic(c, route)

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("name, surname, email and password required"))
			return
		}

		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))
		if emailAddr == "" || strings.TrimSpace(req.Password) == "" {
			writeError(c, route, errBadRequest("name, surname, email and password required"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": emailAddr})
		if err != nil {
			writeError(c, route, err)
			return
		}
		if count > 0 {
			writeError(c, route, errConflict("user already exists"))
			return
		}

		totalUsers, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			writeError(c, route, err)
			return
		}
		role := nextUserRole(totalUsers)

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(c, route, err)
			return
		}

		verificationToken, err := generateToken()
		if err != nil {
			writeError(c, route, err)
			return
		}

		now := time.Now()
		user := models.User{
			Name:              strings.TrimSpace(req.Name),
			Surname:           strings.TrimSpace(req.Surname),
			Email:             emailAddr,
			PasswordHash:      string(hash),
			Role:              role,
			PhoneNumber:       strings.TrimSpace(req.PhoneNumber),
			VerificationToken: verificationToken,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if req.Address != nil {
			user.Address = *req.Address
		}

		if _, err := db.Collection("users").InsertOne(ctx, user); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				writeError(c, route, errConflict("user already exists"))
				return
			}
			writeError(c, route, err)
			return
		}

		if mailer.Enabled() {
			if err := mailer.SendVerification(emailAddr, user.Name, verificationToken); err != nil {
				log.Println("[AUTH] [ERROR] verification mail failed:", err)
			}
			log.Println("[AUTH] [INFO] user registered:", emailAddr)
			c.JSON(http.StatusCreated, gin.H{"msg": "user created"})
			return
		}

		// Without a mail server the token is handed back directly so the
		// account can still be verified.
		log.Println("[AUTH] [INFO] user registered (mail disabled):", emailAddr)
		c.JSON(http.StatusCreated, gin.H{"msg": "user created", "verificationToken": verificationToken})
	}
}

// VerifyEmail marks an account verified when the token matches.
func VerifyEmail(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/verify-email"
		defer handlePanic(c, route)

		var req verifyEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("verificationToken and email required"))
			return
		}

		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": emailAddr}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("invalid credentials"))
			return
		}

		if user.VerificationToken == "" || user.VerificationToken != req.VerificationToken {
			writeError(c, route, errUnauthorized("invalid credentials"))
			return
		}

		now := time.Now()
		if _, err := db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set":   bson.M{"isVerified": true, "verifiedAt": now, "updatedAt": now},
			"$unset": bson.M{"verificationToken": ""},
		}); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "user verified"})
	}
}

// Login checks credentials and issues an access/refresh token pair.
func Login(db *mongo.Database, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/login"
		defer handlePanic(c, route)

		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("email and password required"))
			return
		}

		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": emailAddr}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("email is wrong"))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeError(c, route, errUnauthorized("password is wrong"))
			return
		}

		if !user.IsVerified {
			writeError(c, route, errUnauthorized("account is not verified"))
			return
		}

		tokens, err := issueTokens(ctx, db, user, jwtSecret, accessTTL, refreshTTL, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			writeError(c, route, err)
			return
		}

		log.Println("[AUTH] [INFO] login succeeded:", user.Email)
		c.JSON(http.StatusOK, gin.H{
			"msg":          "login success",
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
			"user": gin.H{
				"id":      user.ID.Hex(),
				"name":    user.Name,
				"surname": user.Surname,
				"email":   user.Email,
				"role":    user.Role,
			},
		})
	}
}

// Refresh rotates a refresh token and issues a new pair.
func Refresh(db *mongo.Database, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("refreshToken is required"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		hash := hashToken(strings.TrimSpace(req.RefreshToken))
		var token models.RefreshToken
		if err := db.Collection("refresh_tokens").FindOne(ctx, bson.M{
			"tokenHash": hash,
			"revoked":   false,
		}).Decode(&token); err != nil {
			writeError(c, route, errUnauthorized("invalid refresh token"))
			return
		}

		if time.Now().After(token.ExpiresAt) {
			_, _ = db.Collection("refresh_tokens").UpdateByID(ctx, token.ID, bson.M{"$set": bson.M{"revoked": true}})
			writeError(c, route, errUnauthorized("refresh token expired"))
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": token.User}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("user not found"))
			return
		}

		newTokens, err := issueTokens(ctx, db, user, jwtSecret, accessTTL, refreshTTL, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			writeError(c, route, err)
			return
		}

		_, _ = db.Collection("refresh_tokens").UpdateByID(ctx, token.ID, bson.M{
			"$set": bson.M{
				"revoked":         true,
				"replacedByToken": newTokens.RefreshTokenID,
			},
		})

		c.JSON(http.StatusOK, gin.H{
			"accessToken":  newTokens.AccessToken,
			"refreshToken": newTokens.RefreshToken,
			"expiresIn":    newTokens.ExpiresIn,
		})
	}
}

// Logout revokes the presented refresh token.
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("refreshToken is required"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		hash := hashToken(strings.TrimSpace(req.RefreshToken))
		res, err := db.Collection("refresh_tokens").UpdateOne(ctx, bson.M{
			"tokenHash": hash,
			"revoked":   false,
		}, bson.M{"$set": bson.M{"revoked": true}})
		if err != nil {
			writeError(c, route, err)
			return
		}
		if res.MatchedCount == 0 {
			writeError(c, route, errUnauthorized("invalid refresh token"))
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "logout success"})
	}
}

// ForgotPassword stores a hashed reset token with a 15 minute expiry and
// mails (or returns) the plain token.
func ForgotPassword(db *mongo.Database, mailer *email.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/forgot-password"
		defer handlePanic(c, route)

		var req forgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("email required"))
			return
		}

		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": emailAddr}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("email is wrong"))
			return
		}

		passwordToken, err := generateToken()
		if err != nil {
			writeError(c, route, err)
			return
		}
		tokenHash, err := bcrypt.GenerateFromPassword([]byte(passwordToken), bcrypt.DefaultCost)
		if err != nil {
			writeError(c, route, err)
			return
		}

		now := time.Now()
		if _, err := db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"passwordTokenHash":    string(tokenHash),
				"passwordTokenExpires": now.Add(passwordTokenTTL),
				"updatedAt":            now,
			},
		}); err != nil {
			writeError(c, route, err)
			return
		}

		if mailer.Enabled() {
			if err := mailer.SendPasswordReset(emailAddr, user.Name, passwordToken); err != nil {
				log.Println("[AUTH] [ERROR] reset mail failed:", err)
			}
			c.JSON(http.StatusOK, gin.H{"msg": "reset email sent"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "reset email sent", "passwordToken": passwordToken})
	}
}

// resetTokenValid requires the token to match AND to be unexpired.
func resetTokenValid(provided, storedHash string, expires, now time.Time) bool {
	if provided == "" || storedHash == "" {
		return false
	}
	if now.After(expires) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(provided)) == nil
}

// ResetPassword sets a new password when the reset token checks out.
func ResetPassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/reset-password"
		defer handlePanic(c, route)

		var req resetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("passwordToken, email and password required"))
			return
		}

		emailAddr := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"email": emailAddr}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("email is wrong"))
			return
		}

		if !resetTokenValid(req.PasswordToken, user.PasswordTokenHash, user.PasswordTokenExpires, time.Now()) {
			writeError(c, route, errUnauthorized("invalid credentials"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(c, route, err)
			return
		}

		now := time.Now()
		if _, err := db.Collection("users").UpdateByID(ctx, user.ID, bson.M{
			"$set":   bson.M{"passwordHash": string(hash), "updatedAt": now},
			"$unset": bson.M{"passwordTokenHash": "", "passwordTokenExpires": ""},
		}); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"msg": "reset success"})
	}
}

/* =========================
   TOKEN HELPERS
========================= */

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func issueTokens(ctx context.Context, db *mongo.Database, user models.User, secret string, accessTTL, refreshTTL time.Duration, ip, userAgent string) (*issuedTokens, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"role":  user.Role,
		"email": user.Email,
		"exp":   now.Add(accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	plainRefresh, err := generateToken()
	if err != nil {
		return nil, errors.New("could not generate refresh token")
	}

	refresh := models.RefreshToken{
		User:      user.ID,
		TokenHash: hashToken(plainRefresh),
		IP:        ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTTL),
		Revoked:   false,
		CreatedAt: now,
	}

	res, err := db.Collection("refresh_tokens").InsertOne(ctx, refresh)
	if err != nil {
		return nil, err
	}

	refreshID, _ := res.InsertedID.(primitive.ObjectID)
	return &issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plainRefresh,
		RefreshTokenID: refreshID,
		ExpiresIn:      int64(accessTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
