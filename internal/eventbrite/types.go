package eventbrite

// Wire formats of the Eventbrite v3 API. Only the fields we read are declared.

type organizationsResponse struct {
	Organizations []struct {
		ID string `json:"id"`
	} `json:"organizations"`
}

type eventsResponse struct {
	Events []event `json:"events"`
}

type event struct {
	ID   string `json:"id"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Start struct {
		Timezone string `json:"timezone"`
		Local    string `json:"local"`
	} `json:"start"`
}

type attendeesResponse struct {
	Attendees  []attendee `json:"attendees"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	HasMoreItems bool `json:"has_more_items"`
}

type attendee struct {
	Profile struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		CellPhone string `json:"cell_phone"`
	} `json:"profile"`
	Created         string   `json:"created"`
	TicketClassName string   `json:"ticket_class_name"`
	Answers         []answer `json:"answers"`
}

type answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
