// AngelaMos | 2026
// messages.go

package auth

// User-facing messages, in the language of the sign-in screens.
const (
	msgInvalidCredentials = "E-mail ou senha incorretos."
	msgEmailExists        = "Este e-mail já está cadastrado."
	msgUnknownFranchise   = "Selecione uma franquia."
	msgWrongPassword      = "A senha atual está incorreta."
	msgResetTokenInvalid  = "O link de redefinição é inválido ou expirou."
	msgSignupPending      = "Cadastro realizado com sucesso! Aguarde a aprovação do gestor da sua franquia."
	msgResetRequested     = "Se o e-mail estiver cadastrado, você receberá um link para redefinir a senha."
	msgTokenReuse         = "Sessão encerrada por segurança. Entre novamente."
)
