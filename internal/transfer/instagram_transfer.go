package transfer

// PageAccount is one entry of GET /me/accounts: a page the delegated
// token may publish through, with its own short-lived page token.
type PageAccount struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
	Name        string `json:"name"`
}

type PageAccountsResponse struct {
	Data  []PageAccount       `json:"data"`
	Error *GraphErrorResponse `json:"error,omitempty"`
}

type IGBusinessAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type IGBusinessAccountResponse struct {
	InstagramBusinessAccount *IGBusinessAccount  `json:"instagram_business_account,omitempty"`
	Error                    *GraphErrorResponse `json:"error,omitempty"`
}

// ContainerResponse covers both /media and /media_publish: each returns
// a single id on success.
type ContainerResponse struct {
	ID    string              `json:"id"`
	Error *GraphErrorResponse `json:"error,omitempty"`
}

// GraphErrorResponse is present in any failed Graph call, regardless of
// the HTTP status returned alongside it.
type GraphErrorResponse struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           int    `json:"code"`
	ErrorSubcode   int    `json:"error_subcode"`
	IsTransient    bool   `json:"is_transient"`
	ErrorUserTitle string `json:"error_user_title"`
	ErrorUserMsg   string `json:"error_user_msg"`
	FbtraceID      string `json:"fbtrace_id"`
}
