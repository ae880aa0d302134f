package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pierrec/lz4/v4"
)

// InlineThreshold is the max compressed size stored inline in SQLite;
// larger workbooks go to S3 when a bucket is configured.
const InlineThreshold = 256 * 1024 // 256KB

// Upload describes an archived import workbook.
type Upload struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	Size           int64     `json:"size"`
	CompressedSize int64     `json:"compressed_size"`
	UploadedBy     string    `json:"uploaded_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// compress returns the lz4 block compression of data, or data itself
// when compression does not help.
func compress(data []byte) ([]byte, bool) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil || n == 0 || n >= len(data) {
		return data, false
	}
	return buf[:n], true
}

func decompress(data []byte, originalSize int64) ([]byte, error) {
	out := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(data, out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// ArchiveWorkbook stores an uploaded workbook and returns its archive ID.
func (s *Storage) ArchiveWorkbook(ctx context.Context, filename, uploadedBy string, data []byte) (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	id := hex.EncodeToString(idBytes)

	payload, compressed := compress(data)

	var inlineData []byte
	var s3Key string
	if len(payload) < InlineThreshold || s.s3 == nil {
		inlineData = payload
	} else {
		s3Key = "uploads/" + id
		if err := s.s3.Put(ctx, s3Key, payload); err != nil {
			return "", fmt.Errorf("failed to upload workbook to S3: %w", err)
		}
	}

	// A compressed_size equal to size marks an uncompressed payload.
	compressedSize := int64(len(payload))
	if !compressed {
		compressedSize = int64(len(data))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, size, compressed_size, inline_data, s3_key, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, filename, len(data), compressedSize, inlineData, s3Key, uploadedBy, time.Now().Unix())
	if err != nil {
		return "", err
	}

	return id, nil
}

// GetWorkbook retrieves an archived workbook's original bytes.
func (s *Storage) GetWorkbook(ctx context.Context, id string) ([]byte, error) {
	var inlineData []byte
	var s3Key sql.NullString
	var size, compressedSize int64

	err := s.db.QueryRowContext(ctx, `
		SELECT inline_data, s3_key, size, compressed_size FROM uploads WHERE id = ?
	`, id).Scan(&inlineData, &s3Key, &size, &compressedSize)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("upload %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	payload := inlineData
	if payload == nil {
		if !s3Key.Valid || s.s3 == nil {
			return nil, fmt.Errorf("upload %s has no data", id)
		}
		payload, err = s.s3.Get(ctx, s3Key.String)
		if err != nil {
			return nil, err
		}
	}

	if compressedSize == size {
		return payload, nil
	}
	return decompress(payload, size)
}

// ListUploads returns archived workbooks, most recent first.
func (s *Storage) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, size, compressed_size, COALESCE(uploaded_by, ''), created_at
		FROM uploads ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var u Upload
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Filename, &u.Size, &u.CompressedSize, &u.UploadedBy, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = time.Unix(createdAt, 0)
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// PruneUploads deletes archived workbooks older than the cutoff,
// including their S3 objects.
func (s *Storage) PruneUploads(ctx context.Context, cutoff time.Time) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, s3_key FROM uploads WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return err
	}
	defer rows.Close()

	type stale struct {
		id    string
		s3Key sql.NullString
	}
	var victims []stale
	for rows.Next() {
		var v stale
		if err := rows.Scan(&v.id, &v.s3Key); err != nil {
			return err
		}
		victims = append(victims, v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, v := range victims {
		if v.s3Key.Valid && v.s3Key.String != "" && s.s3 != nil {
			if err := s.s3.Delete(ctx, v.s3Key.String); err != nil {
				return fmt.Errorf("failed to delete S3 object %s: %w", v.s3Key.String, err)
			}
		}

		s.writeMu.Lock()
		_, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, v.id)
		s.writeMu.Unlock()
		if err != nil {
			return err
		}
	}

	return nil
}
