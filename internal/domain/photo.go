package domain

import "time"

// Tipo 是一个命名的上传槽位，每个用户每个槽位最多一张照片。
type Tipo string

const (
	TipoChico      Tipo = "chico"
	TipoVergonzosa Tipo = "vergonzosa"
)

// MaxPhotosPerOwner 每个用户同时持有的照片上限。
const MaxPhotosPerOwner = 2

// Tipos 返回所有槽位，顺序固定，上传时按此顺序落盘。
func Tipos() []Tipo {
	return []Tipo{TipoChico, TipoVergonzosa}
}

// Valid 判断槽位名是否合法。
func (t Tipo) Valid() bool {
	return t == TipoChico || t == TipoVergonzosa
}

// Photo 表示一张已上传的照片记录。文件本体存放在 blob 存储中。
type Photo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"index;not null" json:"ownerId"`
	Tipo      Tipo      `gorm:"type:varchar(32);not null" json:"tipo"`
	Filename  string    `gorm:"type:varchar(191);not null" json:"filename"`
	Mime      string    `gorm:"type:varchar(64)" json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
