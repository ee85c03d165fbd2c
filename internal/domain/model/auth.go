package model

// LoginRequest — тело POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // G117: JSON-маппинг формы входа
}

// LoginResponse — ответ POST /auth/login.
// Кроме токена backend возвращает отображаемое имя и служебные поля,
// которые клиент не интерпретирует.
type LoginResponse struct {
	// JWTToken — bearer-токен для защищённых запросов
	JWTToken string `json:"jwtToken"`
	// Name — отображаемое имя пользователя
	Name string `json:"name"`
	// Username — логин (может отсутствовать)
	Username string `json:"username,omitempty"`
}

// Identity — данные пользователя, подтверждённые POST /auth/verify.
type Identity struct {
	// Name — отображаемое имя
	Name string `json:"name"`
	// Username — логин
	Username string `json:"username,omitempty"`
	// Roles — роли пользователя (информационно, авторизацию выполняет backend)
	Roles []string `json:"roles,omitempty"`
}
