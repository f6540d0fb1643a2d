package dto

type JoinForm struct {
	Name      string `form:"name" binding:"required"`
	Email     string `form:"email" binding:"required,email"`
	Username  string `form:"username" binding:"required,max=50"`
	Password  string `form:"password" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
	Location  string `form:"location"`
}

type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}
