package common

const (
	KEY_CATALOG_SESSION = "catalog_session:%s"
)
