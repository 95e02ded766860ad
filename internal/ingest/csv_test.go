package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shadow-ai-sentinel/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "access.csv",
		"timestamp,user_email,department,source_ip,method,url,bytes_sent,bytes_received\n"+
			"2026-03-02T09:15:00Z,dev@corp.example,Engineering,10.0.0.5,POST,https://api.githubcopilot.com/completions,500,1200\n"+
			"2026-03-02T10:30:00Z,nurse@corp.example,Clinical,10.0.0.9,GET,https://chat.openai.com/c/patient-notes,,\n")

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "2026-03-02T09:15:00Z", records[0].Timestamp)
	assert.Equal(t, "dev@corp.example", records[0].UserEmail)
	assert.Equal(t, "Engineering", records[0].Department)
	assert.Equal(t, "https://api.githubcopilot.com/completions", records[0].URL)
	assert.Equal(t, "500", records[0].BytesSent)
	assert.Equal(t, "access.csv", records[0].SourceFile)
	assert.Equal(t, 2, records[0].Line)

	// 空字段原样保留，由规范化阶段解释
	assert.Equal(t, "", records[1].BytesSent)
	assert.Equal(t, 3, records[1].Line)
}

// 列名别名与大小写不敏感匹配
func TestReadFileColumnAliases(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "proxy.csv",
		"Date,User,Dept,Client_IP,HTTP_Method,Destination_URL,Bytes_Out,Bytes_In\n"+
			"2026-03-02,alice@corp,Finance,10.0.0.1,GET,https://claude.ai/chat,100,200\n")

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "2026-03-02", records[0].Timestamp)
	assert.Equal(t, "alice@corp", records[0].UserEmail)
	assert.Equal(t, "Finance", records[0].Department)
	assert.Equal(t, "10.0.0.1", records[0].SourceIP)
	assert.Equal(t, "https://claude.ai/chat", records[0].URL)
	assert.Equal(t, "100", records[0].BytesSent)
	assert.Equal(t, "200", records[0].BytesReceived)
}

func TestReadFileMissingURLColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "timestamp,user_email\n2026-03-02,a@b\n")

	_, err := ReadFile(path)
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeIngestFailed, appErr.Code)
}

func TestReadFileShortRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.csv",
		"timestamp,user_email,url\n"+
			"2026-03-02T09:00:00Z,a@b\n")

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	// 缺失的尾部列留空
	assert.Equal(t, "", records[0].URL)
}

func TestReadDirConcatenatesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "timestamp,url\n2026-03-02,https://b.example\n")
	writeFile(t, dir, "a.csv", "timestamp,url\n2026-03-01,https://a.example\n")
	writeFile(t, dir, "notes.txt", "ignored")

	records, err := ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.csv", records[0].SourceFile)
	assert.Equal(t, "b.csv", records[1].SourceFile)
}

func TestReadFileEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "")

	records, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}
