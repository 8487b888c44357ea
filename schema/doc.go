// Package schema provides the mapping catalog that binds Go structs to
// relational tables.
//
// A ClassMap is created once per mapped type, at startup, from a Builder:
//
//	type User struct {
//	    ID      int
//	    Name    string
//	    Age     int
//	    Orders  int
//	    Scratch string `sqlmap:"-"`
//	}
//
//	var Users = schema.Map[User]("Users").
//	    PrimaryKey("ID").
//	    Identity("ID").
//	    Column("Orders", "(select count(1) from [Orders] o where o.UserID = t_0.ID)").
//	    ReadOnly("Orders").
//	    MustBuild()
//
// Every exported field becomes a PropertyMap whose alias is the field name
// and whose column defaults to the alias. A property whose column differs
// from its alias (ignoring case) is a formula and is rendered without a
// table qualifier.
//
// # Struct Tags
//
// The sqlmap tag configures a field at declaration:
//
//	ID    int    `sqlmap:"pk,identity"`
//	Name  string `sqlmap:"column=FullName"`
//	Notes string `sqlmap:"-"`
//
// # Accessors
//
// Each property carries get and set functions built once from reflection.
// Setters accept the raw values produced by database/sql drivers (int64,
// float64, bool, []byte, string, time.Time) and convert them to the field
// type; fields implementing sql.Scanner are scanned.
//
// # Records
//
// Tables known only at run time are mapped with Record, which synthesizes a
// struct type with one field of type any per property.
package schema
