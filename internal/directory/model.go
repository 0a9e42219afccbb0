package directory

// Doctor is a confirmed directory record. ID is assigned by the directory
// service on creation and never locally invented.
type Doctor struct {
	ID           string
	Name         string
	Phone        string
	OpeningHours string
	Profession   string
}

// DoctorInput is a record as entered by staff, before the server has
// assigned an identifier.
type DoctorInput struct {
	Name         string
	Phone        string
	OpeningHours string
	Profession   string
}
