package chunker

import (
	"os"
	"testing"

	"weaver-rag-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}
