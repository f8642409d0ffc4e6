package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/Veraticus/noumi/internal/ingest"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type quizRequest struct {
	GoalName         string          `json:"goal_name"`
	GoalDescription  string          `json:"goal_description"`
	TargetDate       string          `json:"target_date"`
	GoalAmount       decimal.Decimal `json:"goal_amount"`
	NetMonthlyIncome decimal.Decimal `json:"net_monthly_income"`
}

type connectRequest struct {
	PublicToken string `json:"public_token"`
}

type syncRequest struct {
	Days int `json:"days"`
}

// bind decodes an optional JSON body. An empty body leaves dst untouched.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Service: "noumi", Version: s.cfg.Version})
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	user := &model.User{Email: strings.TrimSpace(req.Email), Name: strings.TrimSpace(req.Name)}
	if err := s.users.CreateUser(c.Request.Context(), user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (s *Server) yearlyAnomalies(c *gin.Context) {
	res, err := s.analytics.YearlyAnomalies(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newYearlyAnomaliesResponse(res))
}

func (s *Server) transactionAnomaly(c *gin.Context) {
	res, err := s.analytics.TransactionAnomaly(c.Request.Context(), c.Param("userID"), c.Param("transactionID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionAnomalyResponse(res))
}

func (s *Server) weeklyStreak(c *gin.Context) {
	res, err := s.analytics.WeeklyStreak(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newWeeklyStreakResponse(res))
}

func (s *Server) longestStreak(c *gin.Context) {
	res, err := s.analytics.LongestStreak(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, longestStreakResponse{
		Status:        string(res.Outcome),
		Start:         dateString(res.Start),
		End:           dateString(res.End),
		LongestStreak: res.Longest,
		CurrentStreak: res.Current,
	})
}

func (s *Server) spendingTrends(c *gin.Context) {
	res, err := s.analytics.SpendingTrends(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTrendsResponse(res))
}

func (s *Server) spendingCategories(c *gin.Context) {
	res, err := s.analytics.SpendingCategories(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newCategoriesResponse(res))
}

func (s *Server) spendingStatus(c *gin.Context) {
	res, err := s.analytics.SpendingStatus(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Status:      string(res.Outcome),
		Income:      res.Income,
		Expenses:    res.Expenses,
		SafeToSpend: res.SafeToSpend,
	})
}

func (s *Server) totalSpent(c *gin.Context) {
	res, err := s.analytics.TotalSpentYTD(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, totalSpentResponse{
		Status:     string(res.Outcome),
		Start:      dateString(res.Start),
		TotalSpent: res.Total,
	})
}

func (s *Server) weeklySavings(c *gin.Context) {
	res, err := s.analytics.WeeklySavings(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, savingsResponse{
		Status:           string(res.Outcome),
		WeekStart:        dateString(res.WeekStart),
		Income:           res.Income,
		Expenses:         res.Expenses,
		ActualSavings:    res.ActualSavings,
		SuggestedSavings: res.SuggestedSavings,
	})
}

func (s *Server) computedGoal(c *gin.Context) {
	res, err := s.analytics.ComputedGoal(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, computedGoalResponse{
		Status:      string(res.Outcome),
		GoalName:    res.GoalName,
		TargetDate:  dateString(res.TargetDate),
		GoalAmount:  res.GoalAmount,
		AmountSaved: res.AmountSaved,
		Progress:    res.Progress,
	})
}

func (s *Server) submitQuiz(c *gin.Context) {
	var req quizRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	sub := analytics.GoalSubmission{
		Name:             req.GoalName,
		Description:      req.GoalDescription,
		Amount:           req.GoalAmount,
		NetMonthlyIncome: req.NetMonthlyIncome,
	}
	if strings.TrimSpace(req.TargetDate) != "" {
		target, err := model.ParseDate(req.TargetDate)
		if err != nil {
			s.fail(c, err)
			return
		}
		sub.TargetDate = target
	}

	goal, err := s.analytics.SubmitGoal(c.Request.Context(), c.Param("userID"), sub, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGoalResponse(goal))
}

func (s *Server) weeklyPlan(c *gin.Context) {
	res, err := s.analytics.WeeklyPlan(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, planResponse{Plan: res.Plan, Status: string(res.Outcome), Cached: res.Cached})
}

func (s *Server) habits(c *gin.Context) {
	res, err := s.analytics.Habits(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newHabitsResponse(res))
}

func (s *Server) accomplishments(c *gin.Context) {
	res, err := s.analytics.HabitAccomplishments(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccomplishmentsResponse(res))
}

func (s *Server) weeklyRecap(c *gin.Context) {
	res, err := s.analytics.WeeklyRecap(c.Request.Context(), c.Param("userID"), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, recapResponse{Recap: res.Recap, Status: string(res.Outcome), Cached: res.Cached})
}

func (s *Server) linkToken(c *gin.Context) {
	token, err := s.ingest.CreateLinkToken(c.Request.Context(), c.Param("userID"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, linkTokenResponse{LinkToken: token})
}

func (s *Server) connectPlaid(c *gin.Context) {
	var req connectRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if strings.TrimSpace(req.PublicToken) == "" {
		s.fail(c, fmt.Errorf("%w: public_token is required", errBadRequest))
		return
	}

	conn, err := s.ingest.Connect(c.Request.Context(), c.Param("userID"), req.PublicToken, s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	accounts := conn.AccountIDs
	if accounts == nil {
		accounts = []string{}
	}
	c.JSON(http.StatusOK, connectResponse{
		ItemID:      conn.ItemID,
		ConnectedAt: dateString(conn.ConnectedAt),
		AccountIDs:  accounts,
	})
}

func (s *Server) syncPlaid(c *gin.Context) {
	req := syncRequest{Days: ingest.DefaultSyncDays}
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.Days <= 0 {
		s.fail(c, fmt.Errorf("%w: days must be positive", errBadRequest))
		return
	}

	end := model.DateOf(s.now())
	res, err := s.ingest.SyncPlaid(c.Request.Context(), c.Param("userID"), end.AddDate(0, 0, -req.Days), end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSyncResponse(res))
}
