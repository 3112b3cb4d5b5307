package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandStat は保管庫の統計を表示することを示す。
	CommandStat Command = "stat"
	// CommandFlush は全セッションの文書を統合して書き直すことを示す。
	CommandFlush Command = "flush"
	// CommandServe は保管庫デーモンモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandStatを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandStat
	}

	switch args[0] {
	case "stat":
		return CommandStat
	case "flush":
		return CommandFlush
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	default:
		return CommandStat
	}
}
