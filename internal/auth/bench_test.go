package auth

import "testing"

// ─── Password hashing (PBKDF2, intentionally slow) ──────────────────

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashPassword("correct-horse-battery-staple") //nolint:errcheck // benchmark
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("HashPassword: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyPassword("correct-horse-battery-staple", hash) //nolint:errcheck // benchmark
	}
}

// ─── Session tokens (per-request hot path) ──────────────────────────

func BenchmarkGenerateToken(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateToken() //nolint:errcheck // benchmark
	}
}

func BenchmarkHashToken(b *testing.B) {
	token, err := GenerateToken()
	if err != nil {
		b.Fatalf("GenerateToken: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HashToken(token)
	}
}
