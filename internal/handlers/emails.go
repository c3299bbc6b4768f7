package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mailtriage/internal/compose"
	"mailtriage/internal/config"
	"mailtriage/internal/email"
	"mailtriage/internal/ingest"
	"mailtriage/internal/models"
	"mailtriage/internal/stats"
	"mailtriage/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const defaultListLimit = 50

// ListEmailsHandler returns triaged emails ordered by priority score
// @Summary List triaged emails
// @Description Returns stored emails ordered by priority score descending, bodies omitted
// @Tags emails
// @Produce json
// @Param limit query int false "Maximum emails returned (default 50)"
// @Success 200 {array} models.EmailRecord
// @Failure 500 {object} models.ErrorResponse
// @Router /api/emails [get]
func ListEmailsHandler(st store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultListLimit
		if raw := c.QueryParam("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		records, err := st.List(limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to list emails: %v", err),
			})
		}

		// Bodies stay out of the listing, they can be large
		for i := range records {
			records[i].Body = ""
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"count":  len(records),
			"emails": records,
		})
	}
}

// GetEmailHandler returns one email with its full body and extraction
// @Summary Get one email
// @Tags emails
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} models.EmailRecord
// @Failure 404 {object} models.ErrorResponse
// @Router /api/emails/{id} [get]
func GetEmailHandler(st store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := st.Get(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   "email not found",
			})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to load email: %v", err),
			})
		}

		return c.JSON(http.StatusOK, rec)
	}
}

// StatsHandler returns the triage statistics snapshot
// @Summary Triage statistics
// @Description Returns counts and averages over the last 24 hours
// @Tags emails
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 500 {object} models.ErrorResponse
// @Router /api/emails/stats [get]
func StatsHandler(svc *stats.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		snapshot, err := svc.Cached(time.Now().UTC())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to compute stats: %v", err),
			})
		}

		return c.JSON(http.StatusOK, snapshot)
	}
}

// LoadCSVHandler ingests a CSV export of support emails
// @Summary Load emails from CSV
// @Description Reads a CSV file and runs every row through the triage pipeline
// @Tags emails
// @Accept json
// @Produce json
// @Param request body models.LoadCSVRequest false "CSV path override"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.IngestResponse
// @Router /api/emails/load_csv [post]
func LoadCSVHandler(ing *ingest.Service, svc *stats.Service, cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoadCSVRequest
		// Body is optional, an empty request uses the configured path
		_ = c.Bind(&req)

		path := req.Path
		if path == "" {
			path = cfg.CSVPath
		}

		fmt.Printf("[INGEST] Loading CSV from %s\n", path)

		batch, err := ingest.LoadCSV(path)
		if err != nil {
			fmt.Printf("[INGEST] ERROR: Failed to read CSV: %v\n", err)
			return c.JSON(http.StatusBadRequest, models.IngestResponse{
				Success: false,
				Reason:  fmt.Sprintf("Failed to read CSV: %v", err),
			})
		}

		report := ing.Process(batch, ingest.Options{Status: models.StatusProcessed})
		svc.Invalidate()

		fmt.Printf("[INGEST] CSV run complete: %d rows, %d stored\n", report.Rows, report.Stored)

		return c.JSON(http.StatusOK, models.IngestResponse{
			Success: true,
			Rows:    report.Rows,
			Stored:  report.Stored,
		})
	}
}

// LoadInboxHandler fetches recent messages over IMAP and triages them
// @Summary Load emails from the mailbox
// @Description Connects to the configured IMAP mailbox and triages recent messages
// @Tags emails
// @Produce json
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.IngestResponse
// @Failure 502 {object} models.IngestResponse
// @Router /api/emails/load_inbox [post]
func LoadInboxHandler(ing *ingest.Service, svc *stats.Service, cfg *config.Config, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cfg.IMAPServer == "" || cfg.IMAPEmail == "" {
			return c.JSON(http.StatusBadRequest, models.IngestResponse{
				Success: false,
				Reason:  "IMAP mailbox not configured",
			})
		}

		mailbox := ingest.NewMailbox(ingest.MailboxConfig{
			Server:   cfg.IMAPServer,
			Port:     cfg.IMAPPort,
			Email:    cfg.IMAPEmail,
			Password: cfg.IMAPPassword,
			Folder:   cfg.IMAPFolder,
			Window:   time.Duration(cfg.IMAPDays) * 24 * time.Hour,
			Timeout:  time.Duration(cfg.MailTimeout) * time.Second,
		}, logger)

		ctx := c.Request().Context()
		if err := mailbox.Connect(ctx); err != nil {
			fmt.Printf("[INGEST] ERROR: IMAP connect failed: %v\n", err)
			return c.JSON(http.StatusBadGateway, models.IngestResponse{
				Success: false,
				Reason:  fmt.Sprintf("IMAP connect failed: %v", err),
			})
		}
		defer func() { _ = mailbox.Disconnect() }()

		batch, err := mailbox.Fetch(ctx, cfg.IMAPLimit)
		if err != nil {
			fmt.Printf("[INGEST] ERROR: IMAP fetch failed: %v\n", err)
			return c.JSON(http.StatusBadGateway, models.IngestResponse{
				Success: false,
				Reason:  fmt.Sprintf("IMAP fetch failed: %v", err),
			})
		}

		report := ing.Process(batch, ingest.Options{
			Status:        models.StatusNew,
			LengthBonus:   true,
			MatchCategory: true,
		})
		svc.Invalidate()

		fmt.Printf("[INGEST] Mailbox run complete: %d messages, %d stored\n", report.Rows, report.Stored)

		return c.JSON(http.StatusOK, models.IngestResponse{
			Success: true,
			Rows:    report.Rows,
			Stored:  report.Stored,
		})
	}
}

// DraftHandler generates a reply draft for one email
// @Summary Generate a reply draft
// @Description Composes a reply draft for the email, generative when configured, template otherwise
// @Tags emails
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} models.DraftResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.DraftResponse
// @Router /api/emails/{id}/draft [post]
func DraftHandler(st store.Store, composer *compose.Composer) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := st.Get(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   "email not found",
			})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.DraftResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to load email: %v", err),
			})
		}

		draft, err := composer.ComposeDraft(c.Request().Context(), rec)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.DraftResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to compose draft: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.DraftResponse{
			Success: true,
			DraftID: draft.ID,
			Draft:   draft.Draft,
			Model:   draft.Model,
		})
	}
}

// SendHandler sends the reply for one email and marks it responded
// @Summary Send a reply
// @Description Sends the latest draft, or the provided override text, to the email's sender
// @Tags emails
// @Accept json
// @Produce json
// @Param id path string true "Email ID"
// @Param request body models.SendRequest false "Draft override"
// @Success 200 {object} models.SendResponse
// @Failure 400 {object} models.SendResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.SendResponse
// @Router /api/emails/{id}/send [post]
func SendHandler(st store.Store, composer *compose.Composer, sender email.Sender, svc *stats.Service, cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := st.Get(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   "email not found",
			})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.SendResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to load email: %v", err),
			})
		}

		var req models.SendRequest
		_ = c.Bind(&req)

		draftID := ""
		body := req.Draft
		if body == "" {
			draft, err := st.LatestDraft(rec.ID)
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, models.SendResponse{
					Success: false,
					Error:   "no draft available, generate one first",
				})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, models.SendResponse{
					Success: false,
					Error:   fmt.Sprintf("Failed to load draft: %v", err),
				})
			}
			draftID = draft.ID
			body = draft.Draft
		} else {
			// Override text still becomes part of the response history
			if id, err := st.AddResponse(rec.ID, body, "manual"); err == nil {
				draftID = id
			}
		}

		err = sendReply(c.Request().Context(), sender, cfg, rec, body)
		if err != nil {
			fmt.Printf("[SEND] ERROR: Failed to send reply to %s: %v\n", rec.Sender, err)
			return c.JSON(http.StatusBadGateway, models.SendResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to send reply: %v", err),
			})
		}

		sentAt := time.Now().UTC().Format(time.RFC3339)
		if err := st.SetResponded(rec.ID, sentAt); err != nil {
			fmt.Printf("[SEND] ERROR: Sent but failed to mark responded: %v\n", err)
		}
		if draftID != "" {
			_ = st.FinalizeDraft(draftID)
		}
		svc.Invalidate()

		fmt.Printf("[SEND] Reply sent to %s\n", rec.Sender)

		return c.JSON(http.StatusOK, models.SendResponse{
			Success: true,
			Message: "Reply sent",
			SentAt:  sentAt,
		})
	}
}

// BulkSendHandler sends pending replies in one run
// @Summary Send replies in bulk
// @Description Sends the latest draft for every unanswered email, optionally filtered by priority
// @Tags emails
// @Produce json
// @Param priority query string false "Only send for this priority (urgent or not_urgent)"
// @Success 200 {object} models.BulkSendResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/emails/send_bulk [post]
func BulkSendHandler(st store.Store, sender email.Sender, svc *stats.Service, cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		priority := c.QueryParam("priority")

		records, err := st.List(0)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to list emails: %v", err),
			})
		}

		result := models.BulkSendResponse{}
		ctx := c.Request().Context()

		for _, rec := range records {
			if rec.Status == models.StatusResponded || rec.RespondedAt != "" {
				continue
			}
			if priority != "" && rec.Priority != priority {
				continue
			}

			draft, err := st.LatestDraft(rec.ID)
			if errors.Is(err, store.ErrNotFound) {
				// Unanswered emails without a prepared draft get the template
				draft.Draft = compose.TemplateDraft(rec)
				if id, aerr := st.AddResponse(rec.ID, draft.Draft, compose.ModelTemplate); aerr == nil {
					draft.ID = id
				}
			} else if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.ID, err))
				continue
			}

			if err := sendReply(ctx, sender, cfg, rec, draft.Draft); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.ID, err))
				continue
			}

			sentAt := time.Now().UTC().Format(time.RFC3339)
			_ = st.SetResponded(rec.ID, sentAt)
			if draft.ID != "" {
				_ = st.FinalizeDraft(draft.ID)
			}
			result.Sent++
		}

		svc.Invalidate()

		fmt.Printf("[SEND] Bulk run complete: %d sent, %d failed\n", result.Sent, result.Failed)

		return c.JSON(http.StatusOK, result)
	}
}

// ClearHandler wipes all stored emails and drafts
// @Summary Clear the store
// @Tags emails
// @Produce json
// @Success 200 {object} models.ClearResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/emails/clear [post]
func ClearHandler(st store.Store, svc *stats.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := st.ClearAll(); err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to clear store: %v", err),
			})
		}
		svc.Invalidate()

		return c.JSON(http.StatusOK, models.ClearResponse{
			ClearedEmails:    true,
			ClearedResponses: true,
		})
	}
}

func sendReply(ctx context.Context, sender email.Sender, cfg *config.Config, rec models.EmailRecord, body string) error {
	subject := rec.Subject
	if subject == "" {
		subject = "your support request"
	}
	return sender.Send(ctx, email.Message{
		To:      rec.Sender,
		Subject: "Re: " + subject,
		Body:    body,
	})
}
