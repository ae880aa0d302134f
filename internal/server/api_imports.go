package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nikolag/summit/internal/importer"
)

// readWorkbook pulls the uploaded file from a multipart form, enforcing
// the size cap.
func readWorkbook(c *gin.Context) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	if file.Size > importer.MaxWorkbookSize {
		return "", nil, errTooLarge
	}

	f, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, importer.MaxWorkbookSize+1))
	if err != nil {
		return "", nil, err
	}
	if len(data) > importer.MaxWorkbookSize {
		return "", nil, errTooLarge
	}
	return file.Filename, data, nil
}

var errTooLarge = fmt.Errorf("workbook exceeds the %d MiB limit", importer.MaxWorkbookSize/(1024*1024))

// handleImport validates, archives and runs an uploaded workbook.
// ?dry_run=true parses and resolves without writing.
func (s *Server) handleImport(c *gin.Context) {
	filename, data, err := readWorkbook(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validation, err := importer.Validate(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validation.OK {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "workbook rejected", "missing": validation.Missing})
		return
	}

	ctx := c.Request.Context()
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))

	if !dryRun {
		username := c.GetString("username")
		if _, err := s.storage.ArchiveWorkbook(ctx, filename, username, data); err != nil {
			s.log.Errorw("failed to archive workbook", "filename", filename, "error", err)
		} else {
			s.metrics.workbookBytes.Add(float64(len(data)))
		}
	}

	report, err := s.importer.Run(ctx, data, dryRun)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.metrics.importsTotal.Inc()
	s.metrics.importRowErrors.Add(float64(len(report.Errors)))

	c.JSON(http.StatusOK, report)
}

func (s *Server) handleListUploads(c *gin.Context) {
	uploads, err := s.storage.ListUploads(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}
