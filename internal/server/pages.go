package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nikolag/summit/internal/auth"
	"github.com/nikolag/summit/internal/importer"
)

func (s *Server) handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login", gin.H{})
}

func (s *Server) handleLoginForm(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, ok := s.login(c, username, password)
	if !ok {
		c.HTML(http.StatusUnauthorized, "login", gin.H{
			"Username": username,
			"Error":    "Invalid username or password.",
		})
		return
	}

	c.SetCookie(sessionCookie, token, int(auth.TokenTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleHomePage(c *gin.Context) {
	counts, err := s.storage.CountAll(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to load counts")
		return
	}
	c.HTML(http.StatusOK, "home", counts)
}

func (s *Server) handleImportPage(c *gin.Context) {
	c.HTML(http.StatusOK, "import", gin.H{})
}

// handleImportForm runs an uploaded workbook and reports the outcome
// inline on the import page.
func (s *Server) handleImportForm(c *gin.Context) {
	filename, data, err := readWorkbook(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "import", gin.H{"Message": "Upload failed: " + err.Error()})
		return
	}

	validation, err := importer.Validate(data)
	if err != nil {
		c.HTML(http.StatusBadRequest, "import", gin.H{"Message": "Not a valid workbook: " + err.Error()})
		return
	}
	if !validation.OK {
		c.HTML(http.StatusUnprocessableEntity, "import", gin.H{
			"Message": fmt.Sprintf("Workbook rejected: %v", validation.Missing),
		})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.storage.ArchiveWorkbook(ctx, filename, c.GetString("username"), data); err != nil {
		s.log.Errorw("failed to archive workbook", "filename", filename, "error", err)
	} else {
		s.metrics.workbookBytes.Add(float64(len(data)))
	}

	report, err := s.importer.Run(ctx, data, false)
	if err != nil {
		c.HTML(http.StatusUnprocessableEntity, "import", gin.H{"Message": "Import failed: " + err.Error()})
		return
	}

	s.metrics.importsTotal.Inc()
	s.metrics.importRowErrors.Add(float64(len(report.Errors)))

	c.HTML(http.StatusOK, "import", gin.H{
		"Message": fmt.Sprintf("Imported into event %s: %d created, %d updated, %d assigned, %d rejected.",
			report.EventID, report.Created, report.Updated, report.Assigned, len(report.Errors)),
	})
}
