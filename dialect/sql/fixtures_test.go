package sql

import (
	"time"

	"github.com/google/uuid"

	"github.com/syssam/sqlmap/schema"
)

const ordersFormula = "(select count(1) from [Orders] o where o.UserID = t_0.ID)"

type User struct {
	ID        int `sqlmap:"pk,identity"`
	Name      string
	Age       int
	CreatedAt time.Time
	Orders    int `sqlmap:"readonly,column=(select count(1) from [Orders] o where o.UserID = t_0.ID)"`
}

type Order struct {
	ID     int `sqlmap:"pk,identity"`
	UserID int
	Total  float64
}

type Tag struct {
	Key   uuid.UUID `sqlmap:"pk"`
	Label string
}

type Note struct {
	Body string
}

var (
	users  = schema.Map[User]("Users").MustBuild()
	orders = schema.Map[Order]("Orders").MustBuild()
	tags   = schema.Map[Tag]("Tags").As("tg").MustBuild()
	notes  = schema.Map[Note]("Notes").MustBuild()
)

const userCols = "t_0.[ID], t_0.[Name], t_0.[Age], t_0.[CreatedAt], " + ordersFormula + " as Orders"
