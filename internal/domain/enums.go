package domain

// Departments lists the faculties eligible to register.
var Departments = []string{
	"CSPIT - AIML",
	"CSPIT - CSE",
	"CSPIT - IT",
	"CSPIT - CE",
	"CSPIT - EE",
	"CSPIT - EC",
	"CSPIT - ME",
	"CSPIT - CL",
	"DEPSTAR - IT",
	"DEPSTAR - CE",
	"DEPSTAR - CSE",
	"PDPIAS",
	"BDIAS",
	"IIIM",
	"CLASS",
	"RPCP",
	"CMPICA",
	"MTIN",
	"ARIP",
}

// Years lists the study years eligible to participate.
var Years = []string{"1st Year", "2nd Year"}

// ValidDepartment reports whether dept is an eligible faculty.
func ValidDepartment(dept string) bool {
	for _, d := range Departments {
		if d == dept {
			return true
		}
	}
	return false
}

// ValidYear reports whether year is an eligible study year.
func ValidYear(year string) bool {
	for _, y := range Years {
		if y == year {
			return true
		}
	}
	return false
}
