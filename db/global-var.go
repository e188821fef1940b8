package db

const (
	ConstLayoutDateTime = `2006-01-02 15:04:05`
	ConstLayoutDate     = `2006-01-02`
)

var ConstRoles = struct {
	Admin  int
	Client int
	API    int
}{
	Admin:  1,
	Client: 2,
	API:    3,
}
