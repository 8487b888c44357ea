package sql

import (
	"testing"
)

func BenchmarkBuildSelect(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildSelect(users)
	}
}

func BenchmarkBuildWhere(b *testing.B) {
	pred := F[User]("Age").GT(30).And(F[User]("Name").NEQ("Bob"))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildWhere(users, pred)
	}
}

func BenchmarkBuildPage(b *testing.B) {
	pred := F[User]("Age").GT(30)
	page := &Page{OrderBy: "CreatedAt", From: 1, To: 50, Desc: true}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildPage(users, pred, page)
	}
}

func BenchmarkBuildJoin(b *testing.B) {
	on := F[User]("ID").EQ(F[Order]("UserID")).And(F[Order]("Total").GT(100))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildJoin(users, orders, on)
	}
}

func BenchmarkBuildInsert(b *testing.B) {
	u := &User{Name: "Bob", Age: 31}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildInsert(users, u)
	}
}

func BenchmarkBuildUpdate(b *testing.B) {
	u := &User{ID: 1, Name: "Bob", Age: 31}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildUpdate(users, u)
	}
}

func BenchmarkCompile(b *testing.B) {
	qc, err := NewQueryContext(users, orders)
	if err != nil {
		b.Fatal(err)
	}
	pred := Or(
		F[User]("Age").GTE(18).And(F[Order]("Total").LT(500)),
		F[User]("Name").EQ("admin"),
	)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := NewCompiler(qc).Compile(pred); err != nil {
			b.Fatal(err)
		}
	}
}
