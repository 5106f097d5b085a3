package serverconfig

type Config struct {
	MySQL      MySQLConfig      `yaml:"mysql" mapstructure:"mysql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	GameServer GameServerConfig `yaml:"gameserver" mapstructure:"gameserver"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	JWTSecret  string           `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type HTTPServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// GameServerConfig 是 websocket 网关配置。
type GameServerConfig struct {
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	NeedSecret bool   `yaml:"need_secret" mapstructure:"need_secret"`
	IsDev      bool   `yaml:"is_dev" mapstructure:"is_dev"`
}

// EngineConfig 是模拟引擎各节拍的执行间隔（秒）。
type EngineConfig struct {
	AccrualIntervalS      int   `yaml:"accrual_interval_s" mapstructure:"accrual_interval_s"`
	ConstructionIntervalS int   `yaml:"construction_interval_s" mapstructure:"construction_interval_s"`
	TrainingIntervalS     int   `yaml:"training_interval_s" mapstructure:"training_interval_s"`
	MovementIntervalS     int   `yaml:"movement_interval_s" mapstructure:"movement_interval_s"`
	StarvationIntervalS   int   `yaml:"starvation_interval_s" mapstructure:"starvation_interval_s"`
	ServerID              int64 `yaml:"server_id" mapstructure:"server_id"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}
