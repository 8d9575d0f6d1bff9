package domain

// Action is the string discriminator that selects a backend operation.
// The backend exposes a single endpoint; every request names its operation
// through an action parameter.
type Action string

// Public read actions.
const (
	ActionListPosts       Action = "listPosts"
	ActionGetPost         Action = "getPost"
	ActionSearchPosts     Action = "searchPosts"
	ActionListCategories  Action = "listCategories"
	ActionListAwards      Action = "listAwards"
	ActionListPubs        Action = "listPublications"
	ActionListSocialLinks Action = "listSocialLinks"
	ActionGetProfile      Action = "getProfile"
	ActionGetDonateInfo   Action = "getDonateInfo"
)

// Authentication actions.
const (
	ActionLogin          Action = "login"
	ActionRefreshToken   Action = "refreshToken"
	ActionLogout         Action = "logout"
	ActionChangePassword Action = "changePassword"
)

// Admin write actions.
const (
	ActionCreatePost       Action = "createPost"
	ActionUpdatePost       Action = "updatePost"
	ActionDeletePost       Action = "deletePost"
	ActionCreateCategory   Action = "createCategory"
	ActionUpdateCategory   Action = "updateCategory"
	ActionDeleteCategory   Action = "deleteCategory"
	ActionCreateAward      Action = "createAward"
	ActionUpdateAward      Action = "updateAward"
	ActionDeleteAward      Action = "deleteAward"
	ActionCreatePub        Action = "createPublication"
	ActionUpdatePub        Action = "updatePublication"
	ActionDeletePub        Action = "deletePublication"
	ActionCreateSocialLink Action = "createSocialLink"
	ActionUpdateSocialLink Action = "updateSocialLink"
	ActionDeleteSocialLink Action = "deleteSocialLink"
	ActionListUsers        Action = "listUsers"
	ActionCreateUser       Action = "createUser"
	ActionUpdateUser       Action = "updateUser"
	ActionDeleteUser       Action = "deleteUser"
	ActionUpdateProfile    Action = "updateProfile"
	ActionUpdateDonate     Action = "updateDonateInfo"
	ActionUploadMedia      Action = "uploadMedia"
	ActionDeleteMedia      Action = "deleteMedia"
	ActionCheckSuperAdmin  Action = "checkSuperAdmin"
)

//nolint:gochecknoglobals
var knownActions = map[Action]struct{}{
	ActionListPosts: {}, ActionGetPost: {}, ActionSearchPosts: {},
	ActionListCategories: {}, ActionListAwards: {}, ActionListPubs: {},
	ActionListSocialLinks: {}, ActionGetProfile: {}, ActionGetDonateInfo: {},
	ActionLogin: {}, ActionRefreshToken: {}, ActionLogout: {}, ActionChangePassword: {},
	ActionCreatePost: {}, ActionUpdatePost: {}, ActionDeletePost: {},
	ActionCreateCategory: {}, ActionUpdateCategory: {}, ActionDeleteCategory: {},
	ActionCreateAward: {}, ActionUpdateAward: {}, ActionDeleteAward: {},
	ActionCreatePub: {}, ActionUpdatePub: {}, ActionDeletePub: {},
	ActionCreateSocialLink: {}, ActionUpdateSocialLink: {}, ActionDeleteSocialLink: {},
	ActionListUsers: {}, ActionCreateUser: {}, ActionUpdateUser: {}, ActionDeleteUser: {},
	ActionUpdateProfile: {}, ActionUpdateDonate: {}, ActionUploadMedia: {}, ActionDeleteMedia: {},
	ActionCheckSuperAdmin: {},
}

// Valid reports whether the action names a known backend operation.
// An empty action is never valid; requests without an explicit action must
// fail loudly rather than degrade to some default read.
func (a Action) Valid() bool {
	_, ok := knownActions[a]

	return ok
}

func (a Action) String() string {
	return string(a)
}
