package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/arin/fitbuddy/internal/ai"
	"github.com/arin/fitbuddy/internal/models"
)

const relayChunk = 4096

const chatSystemPrompt = `You are FitBuddy, an encouraging AI fitness coach. You help users with:
- Workout plans for strength, endurance, mobility and fat loss
- Exercise form cues and safe progressions
- Rest, recovery and sleep habits
- Staying motivated and consistent

Keep answers practical and specific. Use bullet points and short sections. Include sets, reps and rest times when suggesting workouts. Recommend seeing a professional for injuries or medical conditions.`

const dietSystemPrompt = `You are a professional AI dietician and nutrition coach. You help users with:
- Personalized meal planning based on their goals (weight loss, muscle gain, maintenance)
- Calorie and macro calculations
- Healthy food recommendations
- Grocery shopping lists
- Meal prep tips

When providing diet advice:
1. Consider the user's goals (weight loss, muscle gain, maintenance)
2. Factor in any dietary restrictions mentioned
3. Provide practical, actionable advice
4. Include estimated calories and macros when relevant
5. Be encouraging and supportive

Respond in a structured format when appropriate. Use bullet points for lists.`

const noAdvice = "Unable to generate diet advice."

type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

type dietRequest struct {
	Prompt      string      `json:"prompt"`
	UserProfile *ai.Profile `json:"userProfile"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "fitbuddy-functions",
		"model":   s.cfg.Model,
	})
}

// aiChat relays a streamed completion for the posted conversation.
func (s *Server) aiChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages is required"})
		return
	}
	if !s.keyConfigured(c) {
		return
	}

	messages := make([]models.Message, 0, len(req.Messages)+1)
	messages = append(messages, models.Message{Role: models.RoleSystem, Content: chatSystemPrompt})
	for _, m := range req.Messages {
		if m.Role == models.RoleSystem {
			continue
		}
		messages = append(messages, m)
	}

	resp, err := s.gw.complete(c.Request.Context(), messages, true)
	if err != nil {
		s.upstreamFailure(c, "ai-chat", err)
		return
	}
	defer resp.Body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	// Relay bytes as they arrive; a cancelled request context ends the
	// upstream read.
	buf := make([]byte, relayChunk)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				s.logger.WithError(rerr).Warn("ai-chat relay interrupted")
			}
			return
		}
	}
}

// dietAdvisor answers a single diet question with optional profile context.
func (s *Server) dietAdvisor(c *gin.Context) {
	var req dietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if !s.keyConfigured(c) {
		return
	}

	messages := []models.Message{
		{Role: models.RoleSystem, Content: dietSystemPrompt},
		{Role: models.RoleUser, Content: dietPrompt(req.Prompt, req.UserProfile)},
	}

	resp, err := s.gw.complete(c.Request.Context(), messages, false)
	if err != nil {
		s.upstreamFailure(c, "diet-advisor", err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil || !gjson.ValidBytes(data) {
		s.logger.WithError(err).Error("diet-advisor: unreadable gateway response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI service error"})
		return
	}

	advice := gjson.GetBytes(data, "choices.0.message.content").String()
	if advice == "" {
		advice = noAdvice
	}
	c.JSON(http.StatusOK, gin.H{"advice": advice})
}

// dietPrompt prefixes the query with the user's profile when one was sent.
func dietPrompt(prompt string, p *ai.Profile) string {
	if p == nil {
		return prompt
	}
	goal := p.FitnessGoal
	if goal == "" {
		goal = "general fitness"
	}
	return fmt.Sprintf("User Profile: Height: %scm, Weight: %skg, Goal: %s\n\nUser Query: %s",
		formatNumber(p.HeightCM), formatNumber(p.WeightKG), goal, prompt)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) keyConfigured(c *gin.Context) bool {
	if s.gw.key != "" {
		return true
	}
	s.logger.Error("upstream key is not configured")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Upstream API key is not configured"})
	return false
}

func (s *Server) upstreamFailure(c *gin.Context, fn string, err error) {
	var upErr *upstreamError
	if !errors.As(err, &upErr) {
		s.logger.WithError(err).WithField("function", fn).Error("gateway unreachable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI service error"})
		return
	}

	s.logger.WithFields(log.Fields{
		"function": fn,
		"status":   upErr.status,
		"body":     upErr.body,
	}).Error("AI gateway error")

	if upErr.status == http.StatusTooManyRequests {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "AI service error"})
}
