package domain

import (
	"os"
	"testing"

	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
)

func TestMain(m *testing.M) {
	troopcfg.Load()
	os.Exit(m.Run())
}
