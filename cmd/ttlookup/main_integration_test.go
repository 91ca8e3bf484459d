package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

func TestCLI_InvalidURL_StdoutOnlyJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 只能输出一个 JSON，且非法 URL 的退出码为 2（无需访问网络）。
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/ttlookup", "lookup", "https://example.com/not-tiktok")
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var ee *exec.ExitError
	if !errors.As(err, &ee) || ee.ExitCode() != 2 {
		t.Fatalf("期望退出码 2，实际 err=%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	var body domain.ClientError
	if err := json.Unmarshal(stdout.Bytes(), &body); err != nil {
		t.Fatalf("stdout 不是合法 JSON：%v\nstdout=%q", err, stdout.String())
	}
	if body.Error != domain.MsgInvalidURL {
		t.Fatalf("期望 error=%q，实际=%q", domain.MsgInvalidURL, body.Error)
	}
}
