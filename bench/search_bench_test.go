package bench

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/engine"
	"github.com/CoolingAtol/ChessBot/rules"
)

func benchSearch(b *testing.B, fen string, depth int) {
	pos, err := rules.NewBoard(fen)
	if err != nil {
		b.Fatalf("NewBoard: %v", err)
	}
	cfg := engine.DefaultConfig()
	cfg.MaxDepth = depth
	s, err := engine.NewSearcher(cfg, zerolog.Nop())
	if err != nil {
		b.Fatalf("NewSearcher: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.NewGame()
		s.Search(context.Background(), pos, engine.Limits{})
	}
}

func BenchmarkSearch_Initial_D4(b *testing.B) {
	benchSearch(b, rules.Startpos, 4)
}

func BenchmarkSearch_Kiwipete_D3(b *testing.B) {
	benchSearch(b, kiwipete, 3)
}

func BenchmarkEvaluate_Kiwipete(b *testing.B) {
	pos, err := rules.NewBoard(kiwipete)
	if err != nil {
		b.Fatalf("NewBoard: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Evaluate(pos)
	}
}
