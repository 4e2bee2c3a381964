package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var globalLogger *slog.Logger

// levels はフラグで指定できるログレベル
var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel ログレベル文字列をslog.Levelに変換
func ParseLevel(level string) (slog.Level, error) {
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
	return l, nil
}

// InitLogger ログレベルに応じてslogを初期化
// wがnilの場合はos.Stderrに出力する（stdoutはコンパイル結果とLSPで使う）
func InitLogger(level string, w io.Writer) error {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)

	return nil
}

// GetLogger グローバルロガーを取得
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		// デフォルトロガーを返す
		return slog.Default()
	}
	return globalLogger
}

// Verbosity ログレベルをcommonlogの冗長度に変換（glspの内部ログ用）
// 値が大きいほど詳細になる
func Verbosity(level string) int {
	switch strings.ToLower(level) {
	case "debug":
		return 2
	case "info":
		return 1
	}
	return 0
}
