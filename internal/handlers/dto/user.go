package dto

// EditProfileForm аватар приходит отдельным файлом в поле "avatar"
type EditProfileForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,max=50"`
	Location string `form:"location"`
}

type ChangePasswordForm struct {
	OldPassword             string `form:"oldPassword" binding:"required"`
	NewPassword             string `form:"newPassword" binding:"required"`
	NewPasswordConfirmation string `form:"newPasswordConfirmation" binding:"required"`
}
